package statuscacheservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/statuscacheservice"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
	"github.com/staropera/aa-memberaudit/internal/memcache"
)

func TestInitCache(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should load existing statuses from storage", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		o := factory.CreateCharacterSectionStatus(testutil.CharacterSectionStatusParams{
			CharacterID: c.ID,
			Section:     app.SectionSkills,
		})
		sc := statuscacheservice.New(memcache.New(), st)
		// when
		err := sc.InitCache(ctx)
		// then
		if assert.NoError(t, err) {
			x, ok := sc.CharacterSectionGet(c.ID, app.SectionSkills)
			if assert.True(t, ok) {
				assert.Equal(t, o.ContentHash, x.ContentHash)
				assert.True(t, x.IsSuccess)
			}
			cc := sc.ListCharacters()
			assert.Len(t, cc, 1)
		}
	})
}

func TestCharacterSummary(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should report incomplete when no section has a status", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		sc := statuscacheservice.New(memcache.New(), st)
		if err := sc.InitCache(ctx); err != nil {
			t.Fatal(err)
		}
		// when
		got := sc.CharacterSummary(c.ID)
		// then
		assert.Equal(t, app.StatusIncomplete, got)
	})
	t.Run("should report ok when all sections succeeded", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		sc := statuscacheservice.New(memcache.New(), st)
		for _, section := range app.CharacterSections {
			sc.SetCharacterSection(&app.CharacterSectionStatus{
				CharacterID: c.ID,
				Section:     section,
				IsSuccess:   true,
			})
		}
		// when
		got := sc.CharacterSummary(c.ID)
		// then
		assert.Equal(t, app.StatusOK, got)
	})
	t.Run("should report error when any section failed", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c := factory.CreateCharacter()
		sc := statuscacheservice.New(memcache.New(), st)
		sc.SetCharacterSection(&app.CharacterSectionStatus{
			CharacterID:  c.ID,
			Section:      app.SectionMails,
			IsSuccess:    false,
			ErrorMessage: "boom",
		})
		// when
		got := sc.CharacterSummary(c.ID)
		// then
		assert.Equal(t, app.StatusError, got)
	})
}

func TestClearCharacterSections(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	t.Run("should remove the statuses of one character only", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c1 := factory.CreateCharacter()
		c2 := factory.CreateCharacter()
		sc := statuscacheservice.New(memcache.New(), st)
		for _, section := range app.CharacterSections {
			sc.SetCharacterSection(&app.CharacterSectionStatus{
				CharacterID: c1.ID,
				Section:     section,
				IsSuccess:   true,
			})
		}
		sc.SetCharacterSection(&app.CharacterSectionStatus{
			CharacterID: c2.ID,
			Section:     app.SectionSkills,
			IsSuccess:   true,
		})
		// when
		sc.ClearCharacterSections(c1.ID)
		// then
		assert.Empty(t, sc.CharacterSectionList(c1.ID))
		assert.Equal(t, app.StatusIncomplete, sc.CharacterSummary(c1.ID))
		_, ok := sc.CharacterSectionGet(c2.ID, app.SectionSkills)
		assert.True(t, ok)
	})
}

func TestCalculateStatistics(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should summarize statuses over all characters", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		c1 := factory.CreateCharacter()
		c2 := factory.CreateCharacter()
		factory.CreateCharacterSectionStatus(testutil.CharacterSectionStatusParams{
			CharacterID: c1.ID,
			Section:     app.SectionSkills,
		})
		factory.CreateCharacterSectionStatus(testutil.CharacterSectionStatusParams{
			CharacterID:  c2.ID,
			Section:      app.SectionMails,
			ErrorMessage: "boom",
		})
		sc := statuscacheservice.New(memcache.New(), st)
		// when
		x, err := sc.CalculateStatistics(ctx)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 2, x.Characters)
			assert.Equal(t, 1, x.SectionsOK)
			assert.Equal(t, 1, x.SectionsFailed)
			assert.Equal(t, 2*len(app.CharacterSections)-2, x.SectionsMissing)
			if assert.Len(t, x.FailedSections, 1) {
				assert.Equal(t, "boom", x.FailedSections[0].ErrorMessage)
			}
			assert.NotNil(t, x.OldestUpdate)
		}
	})
}
