// Package storage implements the persistence layer on SQLite.
// No direct DB access is allowed outside this package.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/staropera/aa-memberaudit/internal/app"
)

// Storage provides access to all persisted objects.
type Storage struct {
	db *sqlx.DB
}

// New returns a new Storage.
func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// InitDB connects to the database and applies the schema.
func InitDB(dataSourceName string) (*sqlx.DB, error) {
	v := url.Values{}
	v.Add("_fk", "on")
	v.Add("_journal_mode", "WAL")
	v.Add("_synchronous", "normal")
	dsn := fmt.Sprintf("%s?%s", dataSourceName, v.Encode())
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database %s: %w", dataSourceName, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// sqlxIn expands an IN clause. SQLite uses ? placeholders, so no rebind is needed.
func sqlxIn(query string, args ...any) (string, []any, error) {
	return sqlx.In(query, args...)
}

// convertGetError maps a database error for a get to a domain error.
func convertGetError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	return err
}

// transaction runs fn inside a database transaction.
func (st *Storage) transaction(fn func(tx *sqlx.Tx) error) error {
	tx, err := st.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// entityResolver loads EveEntity objects for collected IDs in one query.
type entityResolver struct {
	ids map[int64]struct{}
}

func newEntityResolver() *entityResolver {
	return &entityResolver{ids: make(map[int64]struct{})}
}

func (r *entityResolver) add(ids ...sql.NullInt64) {
	for _, id := range ids {
		if id.Valid && id.Int64 != 0 {
			r.ids[id.Int64] = struct{}{}
		}
	}
}

func (r *entityResolver) addID(ids ...int64) {
	for _, id := range ids {
		if id != 0 {
			r.ids[id] = struct{}{}
		}
	}
}

func (r *entityResolver) resolve(ctx context.Context, st *Storage) (map[int32]*app.EveEntity, error) {
	ids := make([]int32, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, int32(id))
	}
	oo, err := st.ListEveEntitiesForIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	m := make(map[int32]*app.EveEntity, len(oo))
	for _, o := range oo {
		m[o.ID] = o
	}
	return m, nil
}

func entityOrNil(m map[int32]*app.EveEntity, id sql.NullInt64) *app.EveEntity {
	if !id.Valid {
		return nil
	}
	return m[int32(id.Int64)]
}
