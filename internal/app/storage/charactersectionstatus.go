package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterSectionStatusDB struct {
	ID           int64     `db:"id"`
	CharacterID  int64     `db:"character_id"`
	SectionID    string    `db:"section_id"`
	IsSuccess    bool      `db:"is_success"`
	ErrorMessage string    `db:"error_message"`
	ContentHash  string    `db:"content_hash"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func characterSectionStatusFromDBModel(o characterSectionStatusDB) *app.CharacterSectionStatus {
	return &app.CharacterSectionStatus{
		CharacterID:  int32(o.CharacterID),
		Section:      app.CharacterSection(o.SectionID),
		IsSuccess:    o.IsSuccess,
		ErrorMessage: o.ErrorMessage,
		ContentHash:  o.ContentHash,
		UpdatedAt:    o.UpdatedAt,
	}
}

type UpdateOrCreateCharacterSectionStatusParams struct {
	CharacterID  int32
	Section      app.CharacterSection
	IsSuccess    bool
	ErrorMessage string
	ContentHash  string
}

// UpdateOrCreateCharacterSectionStatus overwrites the status row of a
// section. There is at most one row per (character, section).
func (st *Storage) UpdateOrCreateCharacterSectionStatus(ctx context.Context, arg UpdateOrCreateCharacterSectionStatusParams) (*app.CharacterSectionStatus, error) {
	if arg.CharacterID == 0 || arg.Section == "" {
		return nil, fmt.Errorf("UpdateOrCreateCharacterSectionStatus: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_section_status (character_id, section_id, is_success, error_message, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id, section_id) DO UPDATE SET
			is_success = excluded.is_success,
			error_message = excluded.error_message,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		arg.CharacterID, arg.Section.String(), arg.IsSuccess, arg.ErrorMessage, arg.ContentHash, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("update or create status for character %d and section %s: %w", arg.CharacterID, arg.Section, err)
	}
	return st.GetCharacterSectionStatus(ctx, arg.CharacterID, arg.Section)
}

func (st *Storage) GetCharacterSectionStatus(ctx context.Context, characterID int32, section app.CharacterSection) (*app.CharacterSectionStatus, error) {
	var o characterSectionStatusDB
	err := st.db.GetContext(
		ctx, &o,
		"SELECT * FROM character_section_status WHERE character_id = ? AND section_id = ?",
		characterID, section.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("get status for character %d with section %s: %w", characterID, section, convertGetError(err))
	}
	return characterSectionStatusFromDBModel(o), nil
}

func (st *Storage) ListCharacterSectionStatus(ctx context.Context, characterID int32) ([]*app.CharacterSectionStatus, error) {
	var rows []characterSectionStatusDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_section_status WHERE character_id = ? ORDER BY section_id",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list status for character %d: %w", characterID, err)
	}
	oo := make([]*app.CharacterSectionStatus, len(rows))
	for i, r := range rows {
		oo[i] = characterSectionStatusFromDBModel(r)
	}
	return oo, nil
}

func (st *Storage) ListAllCharacterSectionStatus(ctx context.Context) ([]*app.CharacterSectionStatus, error) {
	var rows []characterSectionStatusDB
	err := st.db.SelectContext(ctx, &rows, "SELECT * FROM character_section_status ORDER BY character_id, section_id")
	if err != nil {
		return nil, fmt.Errorf("list all section status: %w", err)
	}
	oo := make([]*app.CharacterSectionStatus, len(rows))
	for i, r := range rows {
		oo[i] = characterSectionStatusFromDBModel(r)
	}
	return oo, nil
}

// DeleteCharacterSectionStatus removes all status rows of a character.
// Called at the start of a full refresh.
func (st *Storage) DeleteCharacterSectionStatus(ctx context.Context, characterID int32) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM character_section_status WHERE character_id = ?", characterID)
	if err != nil {
		return fmt.Errorf("delete status for character %d: %w", characterID, err)
	}
	return nil
}
