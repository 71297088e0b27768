package characterservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestUpdateCharacter(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	t.Run("should reset section statuses and submit one task per section", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := NewTestService(st)
		c := factory.CreateCharacter()
		factory.CreateCharacterSectionStatus(testutil.CharacterSectionStatusParams{
			CharacterID: c.ID,
			Section:     app.SectionSkills,
		})
		// when
		err := s.UpdateCharacter(ctx, c.ID, false)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, len(app.CharacterSections), s.queue.Size())
			oo, err := st.ListCharacterSectionStatus(ctx, c.ID)
			if assert.NoError(t, err) {
				assert.Len(t, oo, 0)
			}
		}
	})
	t.Run("should clear cached statuses so the summary reads incomplete", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := NewTestService(st)
		c := factory.CreateCharacter()
		for _, section := range app.CharacterSections {
			s.scs.SetCharacterSection(&app.CharacterSectionStatus{
				CharacterID: c.ID,
				Section:     section,
				IsSuccess:   true,
			})
		}
		if s.scs.CharacterSummary(c.ID) != app.StatusOK {
			t.Fatal("expected summary ok before refresh")
		}
		// when
		err := s.UpdateCharacter(ctx, c.ID, false)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, app.StatusIncomplete, s.scs.CharacterSummary(c.ID))
			assert.Empty(t, s.scs.CharacterSectionList(c.ID))
		}
	})
	t.Run("should submit tasks for all characters", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := NewTestService(st)
		factory.CreateCharacter()
		factory.CreateCharacter()
		// when
		err := s.UpdateAllCharacters(ctx)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 2*len(app.CharacterSections), s.queue.Size())
		}
	})
}
