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

func TestCharacterContract(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create new minimal", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		issuer := factory.CreateEveEntityCharacter()
		corporation := factory.CreateEveEntityCorporation()
		dateExpired := time.Now().Add(12 * time.Hour).UTC()
		dateIssued := time.Now().UTC()
		arg := storage.UpdateOrCreateCharacterContractParams{
			CharacterID:         c.ID,
			ContractID:          42,
			Availability:        app.ContractAvailabilityPersonal,
			DateExpired:         dateExpired,
			DateIssued:          dateIssued,
			IssuerID:            issuer.ID,
			IssuerCorporationID: corporation.ID,
			Status:              app.ContractStatusOutstanding,
			Type:                app.ContractTypeCourier,
		}
		// when
		err := st.UpdateOrCreateCharacterContract(ctx, arg)
		// then
		if assert.NoError(t, err) {
			o, err := st.GetCharacterContract(ctx, c.ID, 42)
			if assert.NoError(t, err) {
				assert.Equal(t, issuer, o.Issuer)
				assert.Equal(t, corporation, o.IssuerCorporation)
				assert.Equal(t, app.ContractAvailabilityPersonal, o.Availability)
				assert.Equal(t, app.ContractStatusOutstanding, o.Status)
				assert.Equal(t, app.ContractTypeCourier, o.Type)
			}
		}
	})
	t.Run("second upsert updates mutable fields only", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		o := factory.CreateCharacterContract()
		acceptor := factory.CreateEveEntityCharacter()
		dateAccepted := time.Now().UTC()
		arg := storage.UpdateOrCreateCharacterContractParams{
			CharacterID:         o.CharacterID,
			ContractID:          o.ContractID,
			AcceptorID:          optional.New(acceptor.ID),
			Availability:        app.ContractAvailabilityPublic,
			DateAccepted:        optional.New(dateAccepted),
			DateExpired:         o.DateExpired,
			DateIssued:          o.DateIssued,
			IssuerID:            o.Issuer.ID,
			IssuerCorporationID: o.IssuerCorporation.ID,
			Status:              app.ContractStatusInProgress,
			Title:               "changed title",
			Type:                o.Type,
		}
		// when
		err := st.UpdateOrCreateCharacterContract(ctx, arg)
		// then
		if assert.NoError(t, err) {
			o2, err := st.GetCharacterContract(ctx, o.CharacterID, o.ContractID)
			if assert.NoError(t, err) {
				assert.Equal(t, app.ContractStatusInProgress, o2.Status)
				assert.Equal(t, acceptor, o2.Acceptor)
				assert.Equal(t, dateAccepted.Unix(), o2.DateAccepted.MustValue().Unix())
				assert.Equal(t, o.Title, o2.Title)
			}
		}
	})
	t.Run("can create with locations", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		start := factory.CreateEveLocationStructure()
		end := factory.CreateEveLocationStation()
		o := factory.CreateCharacterContract(storage.UpdateOrCreateCharacterContractParams{
			CharacterID:     c.ID,
			Type:            app.ContractTypeCourier,
			StartLocationID: optional.New(start.ID),
			EndLocationID:   optional.New(end.ID),
		})
		// when
		o2, err := st.GetCharacterContract(ctx, c.ID, o.ContractID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, start.ID, o2.StartLocation.ID)
			assert.Equal(t, start.Name, o2.StartLocation.Name)
			assert.Equal(t, end.ID, o2.EndLocation.ID)
		}
	})
	t.Run("can list contract ids", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		o1 := factory.CreateCharacterContract(storage.UpdateOrCreateCharacterContractParams{CharacterID: c.ID})
		o2 := factory.CreateCharacterContract(storage.UpdateOrCreateCharacterContractParams{CharacterID: c.ID})
		factory.CreateCharacterContract()
		// when
		got, err := st.ListCharacterContractIDs(ctx, c.ID)
		// then
		if assert.NoError(t, err) {
			assert.ElementsMatch(t, []int32{o1.ContractID, o2.ContractID}, slices.Collect(got.All()))
		}
	})
}

func TestCharacterContractItems(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can replace items", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		o := factory.CreateCharacterContract()
		et1 := factory.CreateEveEntityInventoryType()
		et2 := factory.CreateEveEntityInventoryType()
		args := []storage.CreateCharacterContractItemParams{
			{RecordID: 1, IsIncluded: true, Quantity: 5, EveTypeID: et1.ID},
			{RecordID: 2, IsIncluded: false, Quantity: 1, EveTypeID: et2.ID, RawQuantity: optional.New(int32(-1))},
		}
		// when
		err := st.ReplaceCharacterContractItems(ctx, o.CharacterID, o.ContractID, args)
		// then
		if assert.NoError(t, err) {
			ii, err := st.ListCharacterContractItems(ctx, o.CharacterID, o.ContractID)
			if assert.NoError(t, err) {
				assert.Len(t, ii, 2)
				assert.Equal(t, et1, ii[0].Type)
				assert.Equal(t, int32(-1), ii[1].RawQuantity.MustValue())
			}
		}
	})
	t.Run("replace removes previous items", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		o := factory.CreateCharacterContract()
		et := factory.CreateEveEntityInventoryType()
		err := st.ReplaceCharacterContractItems(ctx, o.CharacterID, o.ContractID, []storage.CreateCharacterContractItemParams{
			{RecordID: 1, IsIncluded: true, Quantity: 5, EveTypeID: et.ID},
		})
		if err != nil {
			t.Fatal(err)
		}
		// when
		err = st.ReplaceCharacterContractItems(ctx, o.CharacterID, o.ContractID, nil)
		// then
		if assert.NoError(t, err) {
			ii, err := st.ListCharacterContractItems(ctx, o.CharacterID, o.ContractID)
			if assert.NoError(t, err) {
				assert.Len(t, ii, 0)
			}
		}
	})
	t.Run("returns not found for unknown contract", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		// when
		err := st.ReplaceCharacterContractItems(ctx, c.ID, 666, nil)
		// then
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}

func TestCharacterContractBids(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can replace bids", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		o := factory.CreateCharacterContract(storage.UpdateOrCreateCharacterContractParams{Type: app.ContractTypeAuction})
		bidder := factory.CreateEveEntityCharacter()
		args := []storage.CreateCharacterContractBidParams{
			{BidID: 1, Amount: 1_000_000, BidderID: bidder.ID, DateBid: time.Now().UTC()},
			{BidID: 2, Amount: 2_000_000, BidderID: bidder.ID, DateBid: time.Now().UTC()},
		}
		// when
		err := st.ReplaceCharacterContractBids(ctx, o.CharacterID, o.ContractID, args)
		// then
		if assert.NoError(t, err) {
			bb, err := st.ListCharacterContractBids(ctx, o.CharacterID, o.ContractID)
			if assert.NoError(t, err) {
				assert.Len(t, bb, 2)
				assert.Equal(t, bidder, bb[0].Bidder)
				assert.Equal(t, 2_000_000.0, bb[1].Amount)
			}
		}
	})
	t.Run("replace is idempotent", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		o := factory.CreateCharacterContract(storage.UpdateOrCreateCharacterContractParams{Type: app.ContractTypeAuction})
		bidder := factory.CreateEveEntityCharacter()
		args := []storage.CreateCharacterContractBidParams{
			{BidID: 1, Amount: 1_000_000, BidderID: bidder.ID, DateBid: time.Now().UTC()},
		}
		// when
		err1 := st.ReplaceCharacterContractBids(ctx, o.CharacterID, o.ContractID, args)
		err2 := st.ReplaceCharacterContractBids(ctx, o.CharacterID, o.ContractID, args)
		// then
		if assert.NoError(t, err1) && assert.NoError(t, err2) {
			bb, err := st.ListCharacterContractBids(ctx, o.CharacterID, o.ContractID)
			if assert.NoError(t, err) {
				assert.Len(t, bb, 1)
			}
		}
	})
}
