package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/staropera/aa-memberaudit/internal/app"
)

type contractBidDB struct {
	ID         int64     `db:"id"`
	ContractPK int64     `db:"contract_pk"`
	BidID      int64     `db:"bid_id"`
	Amount     float64   `db:"amount"`
	BidderID   int64     `db:"bidder_id"`
	DateBid    time.Time `db:"date_bid"`
}

type CreateCharacterContractBidParams struct {
	BidID    int32
	Amount   float64
	BidderID int32
	DateBid  time.Time
}

// ReplaceCharacterContractBids deletes and recreates the bid rows of one
// contract. Sub resources are fully replaced on every pass.
func (st *Storage) ReplaceCharacterContractBids(ctx context.Context, characterID, contractID int32, args []CreateCharacterContractBidParams) error {
	err := st.transaction(func(tx *sqlx.Tx) error {
		pk, err := contractPK(ctx, tx, characterID, contractID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM character_contract_bids WHERE contract_pk = ?", pk); err != nil {
			return err
		}
		for _, arg := range args {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO character_contract_bids (contract_pk, bid_id, amount, bidder_id, date_bid)
				VALUES (?, ?, ?, ?, ?)`,
				pk, arg.BidID, arg.Amount, arg.BidderID, arg.DateBid,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace bids of contract %d for character %d: %w", contractID, characterID, err)
	}
	return nil
}

func (st *Storage) ListCharacterContractBids(ctx context.Context, characterID, contractID int32) ([]*app.CharacterContractBid, error) {
	var rows []contractBidDB
	err := st.db.SelectContext(
		ctx, &rows,
		`SELECT b.* FROM character_contract_bids b
		JOIN character_contracts c ON c.id = b.contract_pk
		WHERE c.character_id = ? AND c.contract_id = ?
		ORDER BY b.date_bid`,
		characterID, contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bids of contract %d for character %d: %w", contractID, characterID, err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.addID(row.BidderID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.CharacterContractBid, len(rows))
	for i, row := range rows {
		oo[i] = &app.CharacterContractBid{
			CharacterID: characterID,
			ContractID:  contractID,
			BidID:       int32(row.BidID),
			Amount:      row.Amount,
			Bidder:      entities[int32(row.BidderID)],
			DateBid:     row.DateBid,
		}
	}
	return oo, nil
}
