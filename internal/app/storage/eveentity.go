package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/ErikKalkoken/go-set"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type eveEntityDB struct {
	ID       int64  `db:"id"`
	Category string `db:"category"`
	Name     string `db:"name"`
}

func eveEntityFromDBModel(o eveEntityDB) *app.EveEntity {
	return &app.EveEntity{
		ID:       int32(o.ID),
		Category: app.EveEntityCategory(o.Category),
		Name:     o.Name,
	}
}

type CreateEveEntityParams struct {
	ID       int32
	Name     string
	Category app.EveEntityCategory
}

func (arg CreateEveEntityParams) isValid() bool {
	return arg.ID != 0
}

// GetOrCreateEveEntity returns an entity, creating it when it does not exist.
// A concurrent create for the same ID is a no-op for the loser.
func (st *Storage) GetOrCreateEveEntity(ctx context.Context, arg CreateEveEntityParams) (*app.EveEntity, error) {
	if !arg.isValid() {
		return nil, fmt.Errorf("GetOrCreateEveEntity: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		"INSERT INTO eve_entities (id, category, name) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
		arg.ID, string(arg.Category), arg.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateEveEntity: %+v: %w", arg, err)
	}
	return st.GetEveEntity(ctx, arg.ID)
}

func (st *Storage) GetEveEntity(ctx context.Context, id int32) (*app.EveEntity, error) {
	var o eveEntityDB
	err := st.db.GetContext(ctx, &o, "SELECT * FROM eve_entities WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get eve entity for id %d: %w", id, convertGetError(err))
	}
	return eveEntityFromDBModel(o), nil
}

func (st *Storage) ListEveEntitiesForIDs(ctx context.Context, ids []int32) ([]*app.EveEntity, error) {
	if len(ids) == 0 {
		return []*app.EveEntity{}, nil
	}
	query, args, err := sqlxIn("SELECT * FROM eve_entities WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []eveEntityDB
	if err := st.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list eve entities for ids: %w", err)
	}
	oo := make([]*app.EveEntity, len(rows))
	for i, r := range rows {
		oo[i] = eveEntityFromDBModel(r)
	}
	return oo, nil
}

// MissingEveEntityIDs returns which of the given IDs do not exist in the database.
func (st *Storage) MissingEveEntityIDs(ctx context.Context, ids set.Set[int32]) (set.Set[int32], error) {
	var missing set.Set[int32]
	if ids.Size() == 0 {
		return missing, nil
	}
	query, args, err := sqlxIn("SELECT id FROM eve_entities WHERE id IN (?)", slices.Collect(ids.All()))
	if err != nil {
		return missing, err
	}
	var existing []int64
	if err := st.db.SelectContext(ctx, &existing, query, args...); err != nil {
		return missing, fmt.Errorf("missing eve entity ids: %w", err)
	}
	missing = ids.Clone()
	for _, id := range existing {
		missing.Delete(int32(id))
	}
	return missing, nil
}
