package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type contractItemDB struct {
	ID          int64         `db:"id"`
	ContractPK  int64         `db:"contract_pk"`
	RecordID    int64         `db:"record_id"`
	IsIncluded  bool          `db:"is_included"`
	IsSingleton bool          `db:"is_singleton"`
	Quantity    int64         `db:"quantity"`
	RawQuantity sql.NullInt64 `db:"raw_quantity"`
	EveTypeID   int64         `db:"eve_type_id"`
}

type CreateCharacterContractItemParams struct {
	RecordID    int64
	IsIncluded  bool
	IsSingleton bool
	Quantity    int32
	RawQuantity optional.Optional[int32]
	EveTypeID   int32
}

// ReplaceCharacterContractItems deletes and recreates the item rows of one
// contract. Sub resources are fully replaced on every pass.
func (st *Storage) ReplaceCharacterContractItems(ctx context.Context, characterID, contractID int32, args []CreateCharacterContractItemParams) error {
	err := st.transaction(func(tx *sqlx.Tx) error {
		pk, err := contractPK(ctx, tx, characterID, contractID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM character_contract_items WHERE contract_pk = ?", pk); err != nil {
			return err
		}
		for _, arg := range args {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO character_contract_items (contract_pk, record_id, is_included, is_singleton, quantity, raw_quantity, eve_type_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				pk, arg.RecordID, arg.IsIncluded, arg.IsSingleton, arg.Quantity,
				optional.ToNullInt64(arg.RawQuantity), arg.EveTypeID,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace items of contract %d for character %d: %w", contractID, characterID, err)
	}
	return nil
}

func (st *Storage) ListCharacterContractItems(ctx context.Context, characterID, contractID int32) ([]*app.CharacterContractItem, error) {
	var rows []contractItemDB
	err := st.db.SelectContext(
		ctx, &rows,
		`SELECT i.* FROM character_contract_items i
		JOIN character_contracts c ON c.id = i.contract_pk
		WHERE c.character_id = ? AND c.contract_id = ?
		ORDER BY i.record_id`,
		characterID, contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items of contract %d for character %d: %w", contractID, characterID, err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.addID(row.EveTypeID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.CharacterContractItem, len(rows))
	for i, row := range rows {
		oo[i] = &app.CharacterContractItem{
			CharacterID: characterID,
			ContractID:  contractID,
			RecordID:    row.RecordID,
			IsIncluded:  row.IsIncluded,
			IsSingleton: row.IsSingleton,
			Quantity:    int32(row.Quantity),
			RawQuantity: optional.FromNullInt64ToInteger[int32](row.RawQuantity),
			Type:        entities[int32(row.EveTypeID)],
		}
	}
	return oo, nil
}

func contractPK(ctx context.Context, tx *sqlx.Tx, characterID, contractID int32) (int64, error) {
	var pk int64
	err := tx.GetContext(
		ctx, &pk,
		"SELECT id FROM character_contracts WHERE character_id = ? AND contract_id = ?",
		characterID, contractID,
	)
	if err != nil {
		return 0, convertGetError(err)
	}
	return pk, nil
}
