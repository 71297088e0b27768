package storage_test

import (
	"context"
	"slices"
	"testing"

	"github.com/ErikKalkoken/go-set"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestEveEntity(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create new entity", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		arg := storage.CreateEveEntityParams{ID: 42, Name: "Erik", Category: app.EveEntityCharacter}
		// when
		e, err := st.GetOrCreateEveEntity(ctx, arg)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, int32(42), e.ID)
			assert.Equal(t, "Erik", e.Name)
			assert.Equal(t, app.EveEntityCharacter, e.Category)
		}
	})
	t.Run("get or create does not overwrite existing entity", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		e := factory.CreateEveEntityCorporation()
		arg := storage.CreateEveEntityParams{ID: e.ID, Name: "Other", Category: app.EveEntityCharacter}
		// when
		e2, err := st.GetOrCreateEveEntity(ctx, arg)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, e, e2)
		}
	})
	t.Run("can identify missing ids", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		e := factory.CreateEveEntityCharacter()
		ids := set.Of(e.ID, 666, 667)
		// when
		missing, err := st.MissingEveEntityIDs(ctx, ids)
		// then
		if assert.NoError(t, err) {
			assert.ElementsMatch(t, []int32{666, 667}, slices.Collect(missing.All()))
		}
	})
	t.Run("can list entities for ids", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		e1 := factory.CreateEveEntityCharacter()
		e2 := factory.CreateEveEntityCorporation()
		factory.CreateEveEntityAlliance()
		// when
		oo, err := st.ListEveEntitiesForIDs(ctx, []int32{e1.ID, e2.ID})
		// then
		if assert.NoError(t, err) {
			assert.ElementsMatch(t, []*app.EveEntity{e1, e2}, oo)
		}
	})
}

func TestEveLocation(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("can create resolved location", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		// when
		l := factory.CreateEveLocationStructure()
		// then
		l2, err := st.GetLocation(ctx, l.ID)
		if assert.NoError(t, err) {
			assert.False(t, l2.IsEmpty())
			assert.Equal(t, l.Name, l2.Name)
			assert.Equal(t, l.SolarSystem, l2.SolarSystem)
		}
	})
	t.Run("placeholder row is empty", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		updatedAt := factory.RandomTime()
		// when
		err := st.CreateEveLocationIfMissing(ctx, 1_000_000_000_001, updatedAt)
		// then
		if assert.NoError(t, err) {
			l, err := st.GetLocation(ctx, 1_000_000_000_001)
			if assert.NoError(t, err) {
				assert.True(t, l.IsEmpty())
			}
		}
	})
	t.Run("create if missing does not overwrite resolved location", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		l := factory.CreateEveLocationStation()
		// when
		err := st.CreateEveLocationIfMissing(ctx, l.ID, factory.RandomTime())
		// then
		if assert.NoError(t, err) {
			l2, err := st.GetLocation(ctx, l.ID)
			if assert.NoError(t, err) {
				assert.False(t, l2.IsEmpty())
				assert.Equal(t, l.Name, l2.Name)
			}
		}
	})
	t.Run("returns not found for unknown location", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		// when
		_, err := st.GetLocation(ctx, 666)
		// then
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}
