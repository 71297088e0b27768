package storage

import (
	"context"
	"fmt"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterMailLabelDB struct {
	ID          int64  `db:"id"`
	CharacterID int64  `db:"character_id"`
	LabelID     int64  `db:"label_id"`
	Name        string `db:"name"`
	Color       string `db:"color"`
	UnreadCount int64  `db:"unread_count"`
}

func characterMailLabelFromDBModel(o characterMailLabelDB) *app.CharacterMailLabel {
	return &app.CharacterMailLabel{
		CharacterID: int32(o.CharacterID),
		LabelID:     int32(o.LabelID),
		Name:        o.Name,
		Color:       o.Color,
		UnreadCount: int(o.UnreadCount),
	}
}

type UpdateOrCreateCharacterMailLabelParams struct {
	CharacterID int32
	LabelID     int32
	Name        string
	Color       string
	UnreadCount int
}

func (st *Storage) UpdateOrCreateCharacterMailLabel(ctx context.Context, arg UpdateOrCreateCharacterMailLabelParams) (*app.CharacterMailLabel, error) {
	if arg.CharacterID == 0 || arg.LabelID == 0 {
		return nil, fmt.Errorf("UpdateOrCreateCharacterMailLabel: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_mail_labels (character_id, label_id, name, color, unread_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (character_id, label_id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			unread_count = excluded.unread_count`,
		arg.CharacterID, arg.LabelID, arg.Name, arg.Color, arg.UnreadCount,
	)
	if err != nil {
		return nil, fmt.Errorf("update or create mail label %d for character %d: %w", arg.LabelID, arg.CharacterID, err)
	}
	return st.GetCharacterMailLabel(ctx, arg.CharacterID, arg.LabelID)
}

func (st *Storage) GetCharacterMailLabel(ctx context.Context, characterID, labelID int32) (*app.CharacterMailLabel, error) {
	var o characterMailLabelDB
	err := st.db.GetContext(
		ctx, &o,
		"SELECT * FROM character_mail_labels WHERE character_id = ? AND label_id = ?",
		characterID, labelID,
	)
	if err != nil {
		return nil, fmt.Errorf("get mail label %d for character %d: %w", labelID, characterID, convertGetError(err))
	}
	return characterMailLabelFromDBModel(o), nil
}

func (st *Storage) ListCharacterMailLabels(ctx context.Context, characterID int32) ([]*app.CharacterMailLabel, error) {
	var rows []characterMailLabelDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_mail_labels WHERE character_id = ? ORDER BY label_id",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list mail labels for character %d: %w", characterID, err)
	}
	oo := make([]*app.CharacterMailLabel, len(rows))
	for i, o := range rows {
		oo[i] = characterMailLabelFromDBModel(o)
	}
	return oo, nil
}
