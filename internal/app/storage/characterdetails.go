package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type characterDetailsDB struct {
	CharacterID    int64         `db:"character_id"`
	CorporationID  int64         `db:"corporation_id"`
	AllianceID     sql.NullInt64 `db:"alliance_id"`
	Birthday       time.Time     `db:"birthday"`
	Description    string        `db:"description"`
	Gender         string        `db:"gender"`
	RaceID         int64         `db:"race_id"`
	SecurityStatus float64       `db:"security_status"`
	Title          string        `db:"title"`
}

type UpdateOrCreateCharacterDetailsParams struct {
	CharacterID    int32
	CorporationID  int32
	AllianceID     optional.Optional[int32]
	Birthday       time.Time
	Description    string
	Gender         string
	RaceID         int32
	SecurityStatus float64
	Title          string
}

func (st *Storage) UpdateOrCreateCharacterDetails(ctx context.Context, arg UpdateOrCreateCharacterDetailsParams) error {
	if arg.CharacterID == 0 || arg.CorporationID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterDetails: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_details (
			character_id, corporation_id, alliance_id, birthday, description,
			gender, race_id, security_status, title
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET
			corporation_id = excluded.corporation_id,
			alliance_id = excluded.alliance_id,
			birthday = excluded.birthday,
			description = excluded.description,
			gender = excluded.gender,
			race_id = excluded.race_id,
			security_status = excluded.security_status,
			title = excluded.title`,
		arg.CharacterID,
		arg.CorporationID,
		optional.ToNullInt64(arg.AllianceID),
		arg.Birthday,
		arg.Description,
		arg.Gender,
		arg.RaceID,
		arg.SecurityStatus,
		arg.Title,
	)
	if err != nil {
		return fmt.Errorf("update or create details for character %d: %w", arg.CharacterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterDetails(ctx context.Context, characterID int32) (*app.CharacterDetails, error) {
	var row characterDetailsDB
	err := st.db.GetContext(ctx, &row, "SELECT * FROM character_details WHERE character_id = ?", characterID)
	if err != nil {
		return nil, fmt.Errorf("get details for character %d: %w", characterID, convertGetError(err))
	}
	r := newEntityResolver()
	r.addID(row.CorporationID)
	r.add(row.AllianceID)
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	return &app.CharacterDetails{
		CharacterID:    int32(row.CharacterID),
		Corporation:    entities[int32(row.CorporationID)],
		Alliance:       entityOrNil(entities, row.AllianceID),
		Birthday:       row.Birthday,
		Description:    row.Description,
		Gender:         row.Gender,
		RaceID:         int32(row.RaceID),
		SecurityStatus: row.SecurityStatus,
		Title:          row.Title,
	}, nil
}
