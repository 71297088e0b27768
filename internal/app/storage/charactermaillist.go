package storage

import (
	"context"
	"fmt"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterMailListDB struct {
	ID          int64  `db:"id"`
	CharacterID int64  `db:"character_id"`
	ListID      int64  `db:"list_id"`
	Name        string `db:"name"`
}

type UpdateOrCreateCharacterMailListParams struct {
	CharacterID int32
	ListID      int32
	Name        string
}

func (st *Storage) UpdateOrCreateCharacterMailList(ctx context.Context, arg UpdateOrCreateCharacterMailListParams) error {
	if arg.CharacterID == 0 || arg.ListID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterMailList: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_mail_lists (character_id, list_id, name) VALUES (?, ?, ?)
		ON CONFLICT (character_id, list_id) DO UPDATE SET name = excluded.name`,
		arg.CharacterID, arg.ListID, arg.Name,
	)
	if err != nil {
		return fmt.Errorf("update or create mail list %d for character %d: %w", arg.ListID, arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterMailList(ctx context.Context, characterID, listID int32) (*app.CharacterMailList, error) {
	var o characterMailListDB
	err := st.db.GetContext(
		ctx, &o,
		"SELECT * FROM character_mail_lists WHERE character_id = ? AND list_id = ?",
		characterID, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("get mail list %d for character %d: %w", listID, characterID, convertGetError(err))
	}
	return &app.CharacterMailList{
		CharacterID: int32(o.CharacterID),
		ListID:      int32(o.ListID),
		Name:        o.Name,
	}, nil
}

func (st *Storage) ListCharacterMailLists(ctx context.Context, characterID int32) ([]*app.CharacterMailList, error) {
	var rows []characterMailListDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_mail_lists WHERE character_id = ? ORDER BY name",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list mail lists for character %d: %w", characterID, err)
	}
	oo := make([]*app.CharacterMailList, len(rows))
	for i, o := range rows {
		oo[i] = &app.CharacterMailList{
			CharacterID: int32(o.CharacterID),
			ListID:      int32(o.ListID),
			Name:        o.Name,
		}
	}
	return oo, nil
}
