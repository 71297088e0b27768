package characterservice

import (
	"context"
	"fmt"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestUpdateJumpClonesESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := NewTestService(st)
	ctx := context.Background()
	t.Run("should replace jump clones with implants", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken()
		characterID := token.CharacterID
		location := factory.CreateEveLocationStation()
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/characters/%d/clones/`, characterID),
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"home_location": map[string]any{
					"location_id":   location.ID,
					"location_type": "station",
				},
				"jump_clones": []map[string]any{
					{
						"implants":      []int32{22118, 22119},
						"jump_clone_id": 12345,
						"location_id":   location.ID,
						"location_type": "station",
						"name":          "PvP clone",
					},
				},
			}),
		)
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"id": 22118, "name": "Implant Alpha", "category": "inventory_type"},
				{"id": 22119, "name": "Implant Beta", "category": "inventory_type"},
			}),
		)
		// when
		changed, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
			CharacterID: characterID,
			Section:     app.SectionJumpClones,
		})
		// then
		if assert.NoError(t, err) {
			assert.True(t, changed)
			oo, err := st.ListCharacterJumpClones(ctx, characterID)
			if assert.NoError(t, err) && assert.Len(t, oo, 1) {
				jc := oo[0]
				assert.Equal(t, int32(12345), jc.JumpCloneID)
				assert.Equal(t, "PvP clone", jc.Name)
				assert.Equal(t, location.ID, jc.Location.ID)
				assert.Len(t, jc.Implants, 2)
			}
		}
	})
}
