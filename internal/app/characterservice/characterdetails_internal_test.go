package characterservice

import (
	"context"
	"fmt"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestUpdateDetailsESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := NewTestService(st)
	ctx := context.Background()
	t.Run("should store the public profile and resolve new entities", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken()
		characterID := token.CharacterID
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/characters/%d/$`, characterID),
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"alliance_id":     99000001,
				"birthday":        "2015-03-24T11:37:00Z",
				"corporation_id":  98000077,
				"description":     "pilot bio",
				"gender":          "female",
				"name":            "CCP Alpha",
				"race_id":         2,
				"security_status": -1.5,
				"title":           "CEO",
			}),
		)
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"id": 98000077, "name": "Some Corp", "category": "corporation"},
				{"id": 99000001, "name": "Some Alliance", "category": "alliance"},
			}),
		)
		// when
		changed, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
			CharacterID: characterID,
			Section:     app.SectionCharacterDetails,
		})
		// then
		if assert.NoError(t, err) {
			assert.True(t, changed)
			d, err := st.GetCharacterDetails(ctx, characterID)
			if assert.NoError(t, err) {
				assert.Equal(t, int32(98000077), d.Corporation.ID)
				if assert.NotNil(t, d.Alliance) {
					assert.Equal(t, int32(99000001), d.Alliance.ID)
				}
				assert.Equal(t, "pilot bio", d.Description)
				assert.Equal(t, "female", d.Gender)
				assert.InDelta(t, -1.5, d.SecurityStatus, 0.01)
				assert.Equal(t, "CEO", d.Title)
			}
		}
	})
}

func TestUpdateCorporationHistoryESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := NewTestService(st)
	ctx := context.Background()
	t.Run("should replace the employment history", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken()
		characterID := token.CharacterID
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/characters/%d/corporationhistory/`, characterID),
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"corporation_id": 98000077, "record_id": 500, "start_date": "2016-06-26T21:00:00Z"},
				{"corporation_id": 98000078, "is_deleted": true, "record_id": 420, "start_date": "2015-03-24T11:37:00Z"},
			}),
		)
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"id": 98000077, "name": "Current Corp", "category": "corporation"},
				{"id": 98000078, "name": "Old Corp", "category": "corporation"},
			}),
		)
		// when
		changed, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
			CharacterID: characterID,
			Section:     app.SectionCorporationHistory,
		})
		// then
		if assert.NoError(t, err) {
			assert.True(t, changed)
			oo, err := st.ListCorporationHistory(ctx, characterID)
			if assert.NoError(t, err) {
				assert.Len(t, oo, 2)
			}
		}
	})
	t.Run("should work without a scoped token", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		token := factory.CreateCharacterToken(storage.UpdateOrCreateCharacterTokenParams{
			Scopes: []string{},
		})
		characterID := token.CharacterID
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/characters/%d/corporationhistory/`, characterID),
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"corporation_id": 98000077, "record_id": 500, "start_date": "2016-06-26T21:00:00Z"},
			}),
		)
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`,
			httpmock.NewJsonResponderOrPanic(200, []map[string]any{
				{"id": 98000077, "name": "Current Corp", "category": "corporation"},
			}),
		)
		// when
		_, err := s.UpdateSectionIfNeeded(ctx, app.CharacterUpdateSectionParams{
			CharacterID: characterID,
			Section:     app.SectionCorporationHistory,
		})
		// then
		assert.NoError(t, err)
	})
}
