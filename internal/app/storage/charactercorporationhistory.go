package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type corporationHistoryDB struct {
	ID            int64     `db:"id"`
	CharacterID   int64     `db:"character_id"`
	RecordID      int64     `db:"record_id"`
	CorporationID int64     `db:"corporation_id"`
	IsDeleted     bool      `db:"is_deleted"`
	StartDate     time.Time `db:"start_date"`
}

type UpdateOrCreateCorporationHistoryParams struct {
	CharacterID   int32
	RecordID      int32
	CorporationID int32
	IsDeleted     bool
	StartDate     time.Time
}

// ReplaceCorporationHistory upserts all employment records of a character
// in one transaction, keyed by record ID.
func (st *Storage) ReplaceCorporationHistory(ctx context.Context, characterID int32, args []UpdateOrCreateCorporationHistoryParams) error {
	err := st.transaction(func(tx *sqlx.Tx) error {
		for _, arg := range args {
			if arg.CharacterID != characterID || arg.RecordID == 0 {
				return fmt.Errorf("%+v: %w", arg, app.ErrInvalid)
			}
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO character_corporation_history (character_id, record_id, corporation_id, is_deleted, start_date)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (character_id, record_id) DO UPDATE SET
					corporation_id = excluded.corporation_id,
					is_deleted = excluded.is_deleted,
					start_date = excluded.start_date`,
				arg.CharacterID, arg.RecordID, arg.CorporationID, arg.IsDeleted, arg.StartDate,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace corporation history for character %d: %w", characterID, err)
	}
	return nil
}

func (st *Storage) ListCorporationHistory(ctx context.Context, characterID int32) ([]*app.CharacterCorporationHistoryEntry, error) {
	var rows []corporationHistoryDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_corporation_history WHERE character_id = ? ORDER BY record_id",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list corporation history for character %d: %w", characterID, err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.addID(row.CorporationID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.CharacterCorporationHistoryEntry, len(rows))
	for i, row := range rows {
		oo[i] = &app.CharacterCorporationHistoryEntry{
			CharacterID: int32(row.CharacterID),
			RecordID:    int32(row.RecordID),
			Corporation: entities[int32(row.CorporationID)],
			IsDeleted:   row.IsDeleted,
			StartDate:   row.StartDate,
		}
	}
	return oo, nil
}
