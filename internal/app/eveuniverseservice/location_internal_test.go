package eveuniverseservice

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/antihax/goesi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage/testutil"
)

func TestIsLocationStale(t *testing.T) {
	_, st, _ := testutil.New()
	s := NewTestService(st)
	now := time.Now().UTC()
	s.Now = func() time.Time { return now }
	system := &app.EveEntity{ID: 30000148, Category: app.EveEntitySolarSystem}
	cases := []struct {
		name     string
		location *app.EveLocation
		want     bool
	}{
		{"empty within grace", &app.EveLocation{ID: 1, UpdatedAt: now.Add(-time.Minute)}, false},
		{"empty beyond grace", &app.EveLocation{ID: 1, UpdatedAt: now.Add(-6 * time.Minute)}, true},
		{"resolved within staleness window", &app.EveLocation{ID: 1, SolarSystem: system, UpdatedAt: now.Add(-23 * time.Hour)}, false},
		{"resolved beyond staleness window", &app.EveLocation{ID: 1, SolarSystem: system, UpdatedAt: now.Add(-25 * time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.isLocationStale(tc.location))
		})
	}
}

func TestGetOrCreateLocationAsync(t *testing.T) {
	db, st, _ := testutil.New()
	defer db.Close()
	ctx := context.Background()
	const id = int64(1_000_000_000_011)
	t.Run("should give a new placeholder the empty grace period", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := NewTestService(st)
		now := time.Now().UTC()
		s.Now = func() time.Time { return now }
		// when
		o, err := s.GetOrCreateLocationAsync(ctx, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.True(t, o.IsEmpty())
			assert.False(t, s.isLocationStale(o))
			assert.Equal(t, 1, s.queue.Size())
		}
		// when
		_, err = s.GetOrCreateLocationAsync(ctx, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 1, s.queue.Size())
		}
	})
	t.Run("should enqueue again once the grace period has passed", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		s := NewTestService(st)
		now := time.Now().UTC()
		s.Now = func() time.Time { return now }
		_, err := s.GetOrCreateLocationAsync(ctx, id, 42)
		if err != nil {
			t.Fatal(err)
		}
		s.Now = func() time.Time { return now.Add(locationEmptyGrace + time.Minute) }
		// when
		_, err = s.GetOrCreateLocationAsync(ctx, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 2, s.queue.Size())
		}
	})
}

func TestLocationErrorLimit(t *testing.T) {
	db, st, _ := testutil.New()
	defer db.Close()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	const id = int64(1_000_000_000_009)
	deniedResponder := httpmock.NewJsonResponderOrPanic(http.StatusForbidden, map[string]any{"error": "forbidden"})
	t.Run("should count a denied structure lookup", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := NewTestService(st)
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/structures/%d/`, id),
			deniedResponder,
		)
		ctx2 := context.WithValue(ctx, goesi.ContextAccessToken, "token")
		// when
		err := s.runLocationUpdate(ctx2, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 1, s.counter.Count(locationErrorsKey))
			l, err := s.st.GetLocation(ctx, id)
			if assert.NoError(t, err) {
				assert.True(t, l.IsEmpty())
			}
		}
	})
	t.Run("should defer without upstream call when limit is reached", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := NewTestService(st)
		for range locationErrorLimit {
			s.counter.Increment(locationErrorsKey)
		}
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/structures/%d/`, id),
			deniedResponder,
		)
		ctx2 := context.WithValue(ctx, goesi.ContextAccessToken, "token")
		// when
		err := s.runLocationUpdate(ctx2, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 0, httpmock.GetTotalCallCount())
			assert.Equal(t, locationErrorLimit, s.counter.Count(locationErrorsKey))
		}
	})
	t.Run("should fetch token from provider when context has none", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := NewTestService(st)
		var providerCalled bool
		s.TokenForCharacter = func(ctx context.Context, characterID int32) (string, error) {
			providerCalled = true
			return "token", nil
		}
		httpmock.RegisterResponder("GET",
			fmt.Sprintf(`=~^https://esi\.evetech\.net/v\d+/universe/structures/%d/`, id),
			deniedResponder,
		)
		// when
		err := s.runLocationUpdate(ctx, id, 42)
		// then
		if assert.NoError(t, err) {
			assert.True(t, providerCalled)
		}
	})
}
