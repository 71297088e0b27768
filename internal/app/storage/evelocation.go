package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type eveLocationDB struct {
	ID               int64         `db:"id"`
	Name             string        `db:"name"`
	EveSolarSystemID sql.NullInt64 `db:"eve_solar_system_id"`
	EveTypeID        sql.NullInt64 `db:"eve_type_id"`
	OwnerID          sql.NullInt64 `db:"owner_id"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

type UpdateOrCreateLocationParams struct {
	ID               int64
	Name             string
	EveSolarSystemID optional.Optional[int32]
	EveTypeID        optional.Optional[int32]
	OwnerID          optional.Optional[int32]
	UpdatedAt        time.Time
}

// UpdateOrCreateEveLocation writes a location row. A row with neither solar
// system nor type is an empty location.
func (st *Storage) UpdateOrCreateEveLocation(ctx context.Context, arg UpdateOrCreateLocationParams) error {
	if arg.ID == 0 {
		return fmt.Errorf("UpdateOrCreateEveLocation: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO eve_locations (id, name, eve_solar_system_id, eve_type_id, owner_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			eve_solar_system_id = excluded.eve_solar_system_id,
			eve_type_id = excluded.eve_type_id,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at`,
		arg.ID,
		arg.Name,
		optional.ToNullInt64(arg.EveSolarSystemID),
		optional.ToNullInt64(arg.EveTypeID),
		optional.ToNullInt64(arg.OwnerID),
		arg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update or create eve location %d: %w", arg.ID, err)
	}
	return nil
}

// CreateEveLocationIfMissing creates an empty placeholder row for an ID
// unless a row already exists.
func (st *Storage) CreateEveLocationIfMissing(ctx context.Context, id int64, updatedAt time.Time) error {
	if id == 0 {
		return fmt.Errorf("CreateEveLocationIfMissing: %d: %w", id, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO eve_locations (id, name, updated_at) VALUES (?, "", ?) ON CONFLICT (id) DO NOTHING`,
		id, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("create eve location if missing %d: %w", id, err)
	}
	return nil
}

func (st *Storage) GetLocation(ctx context.Context, id int64) (*app.EveLocation, error) {
	var row eveLocationDB
	err := st.db.GetContext(ctx, &row, "SELECT * FROM eve_locations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get location for id %d: %w", id, convertGetError(err))
	}
	r := newEntityResolver()
	r.add(row.EveSolarSystemID, row.EveTypeID, row.OwnerID)
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	return eveLocationFromDBModel(row, entities), nil
}

func (st *Storage) ListEveLocations(ctx context.Context) ([]*app.EveLocation, error) {
	var rows []eveLocationDB
	if err := st.db.SelectContext(ctx, &rows, "SELECT * FROM eve_locations ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.add(row.EveSolarSystemID, row.EveTypeID, row.OwnerID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.EveLocation, len(rows))
	for i, row := range rows {
		oo[i] = eveLocationFromDBModel(row, entities)
	}
	return oo, nil
}

func eveLocationFromDBModel(o eveLocationDB, entities map[int32]*app.EveEntity) *app.EveLocation {
	return &app.EveLocation{
		ID:          o.ID,
		Name:        o.Name,
		SolarSystem: entityOrNil(entities, o.EveSolarSystemID),
		Type:        entityOrNil(entities, o.EveTypeID),
		Owner:       entityOrNil(entities, o.OwnerID),
		UpdatedAt:   o.UpdatedAt,
	}
}
