package eveuniverseservice_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/antihax/goesi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app/eveuniverseservice"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
	"github.com/staropera/aa-memberaudit/internal/optional"
)

const (
	solarSystemID = 30000148
	stationID     = 60000277
	structureID   = 1_000_000_000_009
)

func TestGetOrCreateLocationESI(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	ctx := context.Background()
	names := namesResponder(map[int32]map[string]any{
		solarSystemID: {"id": solarSystemID, "name": "Jakanerva", "category": "solar_system"},
		1531:          {"id": 1531, "name": "Caldari Station", "category": "inventory_type"},
		35832:         {"id": 35832, "name": "Astrahus", "category": "inventory_type"},
		1000003:       {"id": 1000003, "name": "Prompt Delivery", "category": "corporation"},
		98267621:      {"id": 98267621, "name": "Structure Owner", "category": "corporation"},
	})
	t.Run("should create location for a station", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`, names)
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/stations/%d/`, stationID),
			httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
				"name":       "Jakanerva III - Moon 15 - Prompt Delivery Storage",
				"owner":      1000003,
				"station_id": stationID,
				"system_id":  solarSystemID,
				"type_id":    1531,
			}),
		)
		// when
		x, err := s.GetOrCreateLocationESI(ctx, stationID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, int64(stationID), x.ID)
			assert.Equal(t, "Jakanerva III - Moon 15 - Prompt Delivery Storage", x.Name)
			assert.Equal(t, int32(solarSystemID), x.SolarSystem.ID)
			assert.Equal(t, int32(1531), x.Type.ID)
			assert.Equal(t, int32(1000003), x.Owner.ID)
		}
	})
	t.Run("should create location for a solar system", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`, names)
		// when
		x, err := s.GetOrCreateLocationESI(ctx, solarSystemID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "Jakanerva", x.Name)
			assert.Equal(t, int32(solarSystemID), x.SolarSystem.ID)
		}
	})
	t.Run("should create location for a structure with token", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("POST",
			`=~^https://esi\.evetech\.net/v\d+/universe/names/`, names)
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/structures/%d/`, structureID),
			httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
				"name":            "Batcave",
				"owner_id":        98267621,
				"solar_system_id": solarSystemID,
				"type_id":         35832,
			}),
		)
		ctx2 := context.WithValue(ctx, goesi.ContextAccessToken, "token")
		// when
		x, err := s.GetOrCreateLocationESI(ctx2, structureID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "Batcave", x.Name)
			assert.False(t, x.IsEmpty())
			assert.Equal(t, int32(98267621), x.Owner.ID)
		}
	})
	t.Run("should store empty location when structure access is denied", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/structures/%d/`, structureID),
			httpmock.NewJsonResponderOrPanic(http.StatusForbidden, map[string]any{"error": "forbidden"}),
		)
		ctx2 := context.WithValue(ctx, goesi.ContextAccessToken, "token")
		// when
		x, err := s.GetOrCreateLocationESI(ctx2, structureID)
		// then
		if assert.NoError(t, err) {
			assert.True(t, x.IsEmpty())
		}
	})
	t.Run("should return error when structure token is missing", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		// when
		_, err := s.GetOrCreateLocationESI(ctx, structureID)
		// then
		assert.Error(t, err)
	})
	t.Run("should return fresh location without upstream call", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		l := factory.CreateEveLocationStation()
		// when
		x, err := s.GetOrCreateLocationESI(ctx, l.ID)
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.Equal(t, l.ID, x.ID)
		}
	})
}

func TestGetOrCreateLocationAsync(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	s := eveuniverseservice.NewTestService(st)
	ctx := context.Background()
	t.Run("should create placeholder and return immediately", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		c := factory.CreateCharacter()
		// when
		x, err := s.GetOrCreateLocationAsync(ctx, structureID, c.ID)
		// then
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
		if assert.NoError(t, err) {
			assert.True(t, x.IsEmpty())
			l, err := st.GetLocation(ctx, structureID)
			if assert.NoError(t, err) {
				assert.Equal(t, int64(structureID), l.ID)
			}
		}
	})
	t.Run("should return resolved location without enqueueing", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		c := factory.CreateCharacter()
		l := factory.CreateEveLocationStructure(storage.UpdateOrCreateLocationParams{
			EveSolarSystemID: optional.New(factory.CreateEveEntitySolarSystem().ID),
		})
		// when
		x, err := s.GetOrCreateLocationAsync(ctx, l.ID, c.ID)
		// then
		if assert.NoError(t, err) {
			assert.False(t, x.IsEmpty())
			assert.Equal(t, l.ID, x.ID)
		}
	})
}
