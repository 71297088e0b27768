package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/staropera/aa-memberaudit/internal/app"
)

func (st *Storage) UpdateOrCreateCharacterWalletBalance(ctx context.Context, characterID int32, balance float64) error {
	if characterID == 0 {
		return fmt.Errorf("UpdateOrCreateCharacterWalletBalance: %d: %w", characterID, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_wallet_balance (character_id, balance, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (character_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = excluded.updated_at`,
		characterID, balance, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update or create wallet balance for character %d: %w", characterID, err)
	}
	return nil
}

func (st *Storage) GetCharacterWalletBalance(ctx context.Context, characterID int32) (*app.CharacterWalletBalance, error) {
	var row struct {
		CharacterID int64     `db:"character_id"`
		Balance     float64   `db:"balance"`
		UpdatedAt   time.Time `db:"updated_at"`
	}
	err := st.db.GetContext(ctx, &row, "SELECT * FROM character_wallet_balance WHERE character_id = ?", characterID)
	if err != nil {
		return nil, fmt.Errorf("get wallet balance for character %d: %w", characterID, convertGetError(err))
	}
	return &app.CharacterWalletBalance{
		CharacterID: int32(row.CharacterID),
		Balance:     row.Balance,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
