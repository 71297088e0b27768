package storage_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

func TestCharacterWalletJournal(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create new entry", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		firstParty := factory.CreateEveEntityCharacter()
		secondParty := factory.CreateEveEntityCharacter()
		date := time.Now().UTC()
		arg := storage.UpsertCharacterWalletJournalEntryParams{
			CharacterID:   c.ID,
			RefID:         12345,
			Amount:        -100.5,
			Balance:       999.5,
			ContextID:     optional.New(int64(42)),
			ContextIDType: app.ContextIDTypeMarketTransaction,
			Date:          date,
			Description:   "test",
			FirstPartyID:  optional.New(firstParty.ID),
			SecondPartyID: optional.New(secondParty.ID),
			RefType:       "market_transaction",
		}
		// when
		err := st.UpsertCharacterWalletJournalEntry(ctx, arg)
		// then
		if assert.NoError(t, err) {
			ee, err := st.ListCharacterWalletJournalEntries(ctx, c.ID)
			if assert.NoError(t, err) && assert.Len(t, ee, 1) {
				e := ee[0]
				assert.Equal(t, int64(12345), e.RefID)
				assert.Equal(t, -100.5, e.Amount)
				assert.Equal(t, firstParty, e.FirstParty)
				assert.Equal(t, secondParty, e.SecondParty)
				assert.Equal(t, app.ContextIDTypeMarketTransaction, e.ContextIDType)
			}
		}
	})
	t.Run("upsert of existing ref id does not duplicate", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		e := factory.CreateCharacterWalletJournalEntry()
		arg := storage.UpsertCharacterWalletJournalEntryParams{
			CharacterID:   e.CharacterID,
			RefID:         e.RefID,
			Amount:        e.Amount,
			Balance:       e.Balance,
			ContextIDType: e.ContextIDType,
			Date:          e.Date,
			Description:   "updated",
			RefType:       e.RefType,
		}
		// when
		err := st.UpsertCharacterWalletJournalEntry(ctx, arg)
		// then
		if assert.NoError(t, err) {
			ee, err := st.ListCharacterWalletJournalEntries(ctx, e.CharacterID)
			if assert.NoError(t, err) && assert.Len(t, ee, 1) {
				assert.Equal(t, "updated", ee[0].Description)
			}
		}
	})
	t.Run("can list ref ids", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		e1 := factory.CreateCharacterWalletJournalEntry(storage.UpsertCharacterWalletJournalEntryParams{CharacterID: c.ID})
		e2 := factory.CreateCharacterWalletJournalEntry(storage.UpsertCharacterWalletJournalEntryParams{CharacterID: c.ID})
		factory.CreateCharacterWalletJournalEntry()
		// when
		got, err := st.ListCharacterWalletJournalRefIDs(ctx, c.ID)
		// then
		if assert.NoError(t, err) {
			assert.ElementsMatch(t, []int64{e1.RefID, e2.RefID}, slices.Collect(got.All()))
		}
	})
}

func TestCharacterWalletBalance(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create and update", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		// when
		err1 := st.UpdateOrCreateCharacterWalletBalance(ctx, c.ID, 100.5)
		err2 := st.UpdateOrCreateCharacterWalletBalance(ctx, c.ID, 200.5)
		// then
		if assert.NoError(t, err1) && assert.NoError(t, err2) {
			b, err := st.GetCharacterWalletBalance(ctx, c.ID)
			if assert.NoError(t, err) {
				assert.Equal(t, 200.5, b.Balance)
				assert.False(t, b.UpdatedAt.IsZero())
			}
		}
	})
	t.Run("returns not found for unknown character", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		// when
		_, err := st.GetCharacterWalletBalance(ctx, 666)
		// then
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}
