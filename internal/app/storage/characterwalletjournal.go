package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErikKalkoken/go-set"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

type walletJournalEntryDB struct {
	ID            int64           `db:"id"`
	CharacterID   int64           `db:"character_id"`
	RefID         int64           `db:"ref_id"`
	Amount        float64         `db:"amount"`
	Balance       float64         `db:"balance"`
	ContextID     sql.NullInt64   `db:"context_id"`
	ContextIDType string          `db:"context_id_type"`
	Date          time.Time       `db:"date"`
	Description   string          `db:"description"`
	FirstPartyID  sql.NullInt64   `db:"first_party_id"`
	SecondPartyID sql.NullInt64   `db:"second_party_id"`
	Reason        string          `db:"reason"`
	RefType       string          `db:"ref_type"`
	Tax           sql.NullFloat64 `db:"tax"`
	TaxReceiverID sql.NullInt64   `db:"tax_receiver_id"`
}

type UpsertCharacterWalletJournalEntryParams struct {
	CharacterID   int32
	RefID         int64
	Amount        float64
	Balance       float64
	ContextID     optional.Optional[int64]
	ContextIDType app.ContextIDType
	Date          time.Time
	Description   string
	FirstPartyID  optional.Optional[int32]
	SecondPartyID optional.Optional[int32]
	Reason        string
	RefType       string
	Tax           optional.Optional[float64]
	TaxReceiverID optional.Optional[int32]
}

// UpsertCharacterWalletJournalEntry writes a ledger entry keyed by ref ID.
// The journal is append only upstream, entries are never deleted.
func (st *Storage) UpsertCharacterWalletJournalEntry(ctx context.Context, arg UpsertCharacterWalletJournalEntryParams) error {
	if arg.CharacterID == 0 || arg.RefID == 0 {
		return fmt.Errorf("UpsertCharacterWalletJournalEntry: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.db.ExecContext(
		ctx,
		`INSERT INTO character_wallet_journal (
			character_id, ref_id, amount, balance, context_id, context_id_type,
			date, description, first_party_id, second_party_id, reason, ref_type,
			tax, tax_receiver_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id, ref_id) DO UPDATE SET
			amount = excluded.amount,
			balance = excluded.balance,
			context_id = excluded.context_id,
			context_id_type = excluded.context_id_type,
			date = excluded.date,
			description = excluded.description,
			first_party_id = excluded.first_party_id,
			second_party_id = excluded.second_party_id,
			reason = excluded.reason,
			ref_type = excluded.ref_type,
			tax = excluded.tax,
			tax_receiver_id = excluded.tax_receiver_id`,
		arg.CharacterID,
		arg.RefID,
		arg.Amount,
		arg.Balance,
		optional.ToNullInt64(arg.ContextID),
		string(arg.ContextIDType),
		arg.Date,
		arg.Description,
		optional.ToNullInt64(arg.FirstPartyID),
		optional.ToNullInt64(arg.SecondPartyID),
		arg.Reason,
		arg.RefType,
		optional.ToNullFloat64(arg.Tax),
		optional.ToNullInt64(arg.TaxReceiverID),
	)
	if err != nil {
		return fmt.Errorf("upsert wallet journal entry %d for character %d: %w", arg.RefID, arg.CharacterID, err)
	}
	return nil
}

// ListCharacterWalletJournalRefIDs returns the ref IDs of all stored entries.
func (st *Storage) ListCharacterWalletJournalRefIDs(ctx context.Context, characterID int32) (set.Set[int64], error) {
	var ids []int64
	err := st.db.SelectContext(
		ctx, &ids,
		"SELECT ref_id FROM character_wallet_journal WHERE character_id = ?",
		characterID,
	)
	if err != nil {
		return set.Set[int64]{}, fmt.Errorf("list wallet journal ref ids for character %d: %w", characterID, err)
	}
	return set.Of(ids...), nil
}

func (st *Storage) ListCharacterWalletJournalEntries(ctx context.Context, characterID int32) ([]*app.CharacterWalletJournalEntry, error) {
	var rows []walletJournalEntryDB
	err := st.db.SelectContext(
		ctx, &rows,
		"SELECT * FROM character_wallet_journal WHERE character_id = ? ORDER BY date DESC",
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wallet journal for character %d: %w", characterID, err)
	}
	r := newEntityResolver()
	for _, row := range rows {
		r.add(row.FirstPartyID, row.SecondPartyID, row.TaxReceiverID)
	}
	entities, err := r.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	oo := make([]*app.CharacterWalletJournalEntry, len(rows))
	for i, row := range rows {
		oo[i] = &app.CharacterWalletJournalEntry{
			CharacterID:   int32(row.CharacterID),
			RefID:         row.RefID,
			Amount:        row.Amount,
			Balance:       row.Balance,
			ContextID:     optional.FromNullInt64(row.ContextID),
			ContextIDType: app.ContextIDType(row.ContextIDType),
			Date:          row.Date,
			Description:   row.Description,
			FirstParty:    entityOrNil(entities, row.FirstPartyID),
			SecondParty:   entityOrNil(entities, row.SecondPartyID),
			Reason:        row.Reason,
			RefType:       row.RefType,
			Tax:           optional.FromNullFloat64(row.Tax),
			TaxReceiver:   entityOrNil(entities, row.TaxReceiverID),
		}
	}
	return oo, nil
}
