package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterDB struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	IsVisible bool      `db:"is_visible"`
}

func characterFromDBModel(o characterDB) *app.Character {
	return &app.Character{
		ID:        int32(o.ID),
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
		IsVisible: o.IsVisible,
	}
}

type CreateCharacterParams struct {
	ID        int32
	Name      string
	IsVisible bool
}

// CreateCharacter registers a character. Normally called by the registration
// collaborator, not by the sync core.
func (st *Storage) CreateCharacter(ctx context.Context, arg CreateCharacterParams) (*app.Character, error) {
	if arg.ID == 0 {
		return nil, fmt.Errorf("CreateCharacter: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		"INSERT INTO characters (id, name, created_at, is_visible) VALUES (?, ?, ?, ?)",
		arg.ID, arg.Name, time.Now().UTC(), arg.IsVisible,
	)
	if err != nil {
		return nil, fmt.Errorf("create character %d: %w", arg.ID, err)
	}
	return st.GetCharacter(ctx, arg.ID)
}

func (st *Storage) GetCharacter(ctx context.Context, id int32) (*app.Character, error) {
	var o characterDB
	err := st.db.GetContext(ctx, &o, "SELECT * FROM characters WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", id, convertGetError(err))
	}
	return characterFromDBModel(o), nil
}

func (st *Storage) ListCharacters(ctx context.Context) ([]*app.Character, error) {
	var rows []characterDB
	if err := st.db.SelectContext(ctx, &rows, "SELECT * FROM characters ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	oo := make([]*app.Character, len(rows))
	for i, r := range rows {
		oo[i] = characterFromDBModel(r)
	}
	return oo, nil
}

func (st *Storage) ListCharacterIDs(ctx context.Context) ([]int32, error) {
	var ids []int32
	if err := st.db.SelectContext(ctx, &ids, "SELECT id FROM characters ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list character ids: %w", err)
	}
	return ids, nil
}

// DeleteCharacter removes a character. All owned section data and status
// rows cascade.
func (st *Storage) DeleteCharacter(ctx context.Context, id int32) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM characters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete character %d: %w", id, err)
	}
	return nil
}
