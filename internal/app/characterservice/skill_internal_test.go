package characterservice

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestUpdateSkillsESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := NewTestService(st)
	ctx := context.Background()
	t.Run("should store skills and delete skills absent upstream", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken()
		characterID := token.CharacterID
		obsolete := factory.CreateEveEntityInventoryType()
		err := st.UpdateOrCreateCharacterSkill(ctx, storage.UpdateOrCreateCharacterSkillParams{
			CharacterID:        characterID,
			EveTypeID:          obsolete.ID,
			ActiveSkillLevel:   5,
			TrainedSkillLevel:  5,
			SkillPointsInSkill: 256000,
		})
		if err != nil {
			t.Fatal(err)
		}
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/characters/%d/skills/`, characterID),
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"skills": []map[string]any{
					{"active_skill_level": 3, "skill_id": 41, "skillpoints_in_skill": 10000, "trained_skill_level": 4},
					{"active_skill_level": 1, "skill_id": 42, "skillpoints_in_skill": 500, "trained_skill_level": 1},
				},
				"total_sp":       10500,
				"unallocated_sp": 150,
			}),
		)
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"id": 41, "name": "Caldari Frigate", "category": "inventory_type"},
				{"id": 42, "name": "Gunnery", "category": "inventory_type"},
			}),
		)
		// when
		changed, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
			CharacterID: characterID,
			Section:     app.SectionSkills,
		})
		// then
		if assert.NoError(t, err) {
			assert.True(t, changed)
			ids, err := st.ListCharacterSkillIDs(ctx, characterID)
			if assert.NoError(t, err) {
				assert.ElementsMatch(t, []int32{41, 42}, slices.Collect(ids.All()))
			}
			sp, err := st.GetCharacterSkillPoints(ctx, characterID)
			if assert.NoError(t, err) {
				assert.Equal(t, int64(10500), sp.Total)
				assert.Equal(t, int32(150), sp.Unallocated.MustValue())
			}
		}
	})
}
