// Package testutil contains factories for creating test objects in storage.
package testutil

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app/storage"
)

// New creates and returns a database in memory for tests.
func New() (*sqlx.DB, *storage.Storage, Factory) {
	db, err := storage.InitDB(":memory:")
	if err != nil {
		panic(err)
	}
	// a second pool connection would get its own empty in-memory DB
	db.SetMaxOpenConns(1)
	st := storage.New(db)
	factory := NewFactory(st, db)
	return db, st, factory
}

// TruncateTables will purge data from all tables. This is meant for tests.
func TruncateTables(db *sqlx.DB) {
	if _, err := db.Exec("PRAGMA foreign_keys = 0"); err != nil {
		panic(err)
	}
	var tables []string
	if err := db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = "table"`); err != nil {
		panic(err)
	}
	for _, n := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s;", n)); err != nil {
			panic(err)
		}
		db.Exec(fmt.Sprintf("DELETE FROM SQLITE_SEQUENCE WHERE name='%s'", n))
	}
	if _, err := db.Exec("PRAGMA foreign_keys = 1"); err != nil {
		panic(err)
	}
}
