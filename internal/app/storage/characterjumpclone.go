package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type characterJumpCloneDB struct {
	ID          int64  `db:"id"`
	CharacterID int64  `db:"character_id"`
	JumpCloneID int64  `db:"jump_clone_id"`
	LocationID  int64  `db:"location_id"`
	Name        string `db:"name"`
}

type CreateCharacterJumpCloneParams struct {
	CharacterID int32
	JumpCloneID int32
	LocationID  int64
	Name        string
	ImplantIDs  []int32
}

// ReplaceCharacterJumpClones deletes all clones of a character and recreates
// them in one transaction. Implant rows cascade with their clone.
//
// Locations must exist before calling this, so no network calls happen
// while the transaction holds the write lock.
func (st *Storage) ReplaceCharacterJumpClones(ctx context.Context, characterID int32, args []CreateCharacterJumpCloneParams) error {
	err := st.transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM character_jump_clones WHERE character_id = ?", characterID); err != nil {
			return err
		}
		for _, arg := range args {
			if arg.CharacterID != characterID || arg.LocationID == 0 {
				return fmt.Errorf("%+v: %w", arg, app.ErrInvalid)
			}
			res, err := tx.ExecContext(
				ctx,
				"INSERT INTO character_jump_clones (character_id, jump_clone_id, location_id, name) VALUES (?, ?, ?, ?)",
				arg.CharacterID, arg.JumpCloneID, arg.LocationID, arg.Name,
			)
			if err != nil {
				return err
			}
			clonePK, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for _, typeID := range arg.ImplantIDs {
				_, err := tx.ExecContext(
					ctx,
					"INSERT INTO character_jump_clone_implants (clone_id, eve_type_id) VALUES (?, ?)",
					clonePK, typeID,
				)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace jump clones for character %d: %w", characterID, err)
	}
	return nil
}

func (st *Storage) ListCharacterJumpClones(ctx context.Context, characterID int32) ([]*app.CharacterJumpClone, error) {
	var rows []characterJumpCloneDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_jump_clones WHERE character_id = ? ORDER BY jump_clone_id",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jump clones for character %d: %w", characterID, err)
	}
	oo := make([]*app.CharacterJumpClone, len(rows))
	for i, row := range rows {
		location, err := st.GetLocation(ctx, row.LocationID)
		if err != nil {
			return nil, err
		}
		var implantRows []struct {
			EveTypeID int64 `db:"eve_type_id"`
		}
		err = st.db.SelectContext(
			ctx, &implantRows,
			"SELECT eve_type_id FROM character_jump_clone_implants WHERE clone_id = ? ORDER BY eve_type_id",
			row.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("list implants for clone %d: %w", row.ID, err)
		}
		r := newEntityResolver()
		for _, ir := range implantRows {
			r.addID(ir.EveTypeID)
		}
		entities, err := r.resolve(ctx, st)
		if err != nil {
			return nil, err
		}
		implants := make([]*app.EveEntity, len(implantRows))
		for j, ir := range implantRows {
			implants[j] = entities[int32(ir.EveTypeID)]
		}
		oo[i] = &app.CharacterJumpClone{
			ID:          row.ID,
			CharacterID: int32(row.CharacterID),
			JumpCloneID: int32(row.JumpCloneID),
			Name:        row.Name,
			Location:    location,
			Implants:    implants,
		}
	}
	return oo, nil
}
