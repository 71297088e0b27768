package eveuniverseservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/optional"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

const (
	locationErrorsKey     = "location-esi-errors"
	locationErrorLimit    = 50
	locationErrorCooldown = 60 * time.Second
	locationEmptyGrace    = 5 * time.Minute
	locationStaleAfter    = 24 * time.Hour
)

// locationResult reports whether the upstream denied access to a structure.
// Denials feed the shared error budget for structure lookups.
type locationResult struct {
	location *app.EveLocation
	denied   bool
}

func (s *EveUniverseService) GetLocation(ctx context.Context, id int64) (*app.EveLocation, error) {
	return s.st.GetLocation(ctx, id)
}

// GetOrCreateLocationESI returns a location when a fresh row already exists
// or else fetches and creates it from ESI.
//
// Important: A token with the structure scope must be set in the context
// when the ID can refer to a structure.
func (s *EveUniverseService) GetOrCreateLocationESI(ctx context.Context, id int64) (*app.EveLocation, error) {
	o, err := s.st.GetLocation(ctx, id)
	if errors.Is(err, app.ErrNotFound) {
		r, err := s.updateOrCreateLocationESI(ctx, id)
		if err != nil {
			return nil, err
		}
		return r.location, nil
	}
	if err != nil {
		return nil, err
	}
	if s.isLocationStale(o) {
		r, err := s.updateOrCreateLocationESI(ctx, id)
		if err != nil {
			return nil, err
		}
		return r.location, nil
	}
	return o, nil
}

// GetOrCreateLocationAsync returns the stored location immediately, creating
// an empty placeholder when none exists. When the row is missing or stale its
// resolution runs as a background task, so callers never block on a slow or
// rate limited structure endpoint.
func (s *EveUniverseService) GetOrCreateLocationAsync(ctx context.Context, id int64, characterID int32) (*app.EveLocation, error) {
	o, err := s.st.GetLocation(ctx, id)
	if errors.Is(err, app.ErrNotFound) {
		if err := s.st.CreateEveLocationIfMissing(ctx, id, s.Now()); err != nil {
			return nil, err
		}
		o, err = s.st.GetLocation(ctx, id)
		if err != nil {
			return nil, err
		}
		s.enqueueLocationUpdate(id, characterID)
		return o, nil
	}
	if err != nil {
		return nil, err
	}
	if s.isLocationStale(o) {
		s.enqueueLocationUpdate(id, characterID)
	}
	return o, nil
}

// isLocationStale reports whether a row needs to be refreshed from ESI.
// Empty rows get a short grace period so repeated lookups of an inaccessible
// structure do not hammer the endpoint. Resolved rows age out much later.
func (s *EveUniverseService) isLocationStale(o *app.EveLocation) bool {
	if o.IsEmpty() {
		return s.Now().Sub(o.UpdatedAt) > locationEmptyGrace
	}
	return s.Now().Sub(o.UpdatedAt) > locationStaleAfter
}

func (s *EveUniverseService) enqueueLocationUpdate(id int64, characterID int32) {
	s.queue.Submit(taskqueue.Task{
		Name:     fmt.Sprintf("update-location-%d", id),
		Priority: taskqueue.PriorityDefault,
		Run: func(ctx context.Context) error {
			return s.runLocationUpdate(ctx, id, characterID)
		},
	})
}

// runLocationUpdate resolves one location in the background. When the shared
// error budget is exhausted the task re-queues itself after the cooldown
// instead of calling upstream.
func (s *EveUniverseService) runLocationUpdate(ctx context.Context, id int64, characterID int32) error {
	if s.counter.Count(locationErrorsKey) >= locationErrorLimit {
		slog.Warn("Location error limit reached, deferring task", "locationID", id, "cooldown", locationErrorCooldown)
		s.queue.SubmitAfter(locationErrorCooldown, taskqueue.Task{
			Name:     fmt.Sprintf("update-location-%d", id),
			Priority: taskqueue.PriorityDefault,
			Run: func(ctx context.Context) error {
				return s.runLocationUpdate(ctx, id, characterID)
			},
		})
		return nil
	}
	if s.TokenForCharacter != nil && ctx.Value(goesi.ContextAccessToken) == nil {
		token, err := s.TokenForCharacter(ctx, characterID)
		if err != nil {
			return err
		}
		ctx = context.WithValue(ctx, goesi.ContextAccessToken, token)
	}
	r, err := s.updateOrCreateLocationESI(ctx, id)
	if err != nil {
		return err
	}
	if r.denied {
		n := s.counter.Increment(locationErrorsKey)
		slog.Warn("Structure access denied", "locationID", id, "characterID", characterID, "errorCount", n)
	}
	return nil
}

// updateOrCreateLocationESI fetches and stores a location from ESI.
//
// Important: A token with the structure scope must be set in the context
// when the ID refers to a structure.
func (s *EveUniverseService) updateOrCreateLocationESI(ctx context.Context, id int64) (locationResult, error) {
	key := fmt.Sprintf("updateOrCreateLocationESI-%d", id)
	y, err, _ := s.sfg.Do(key, func() (any, error) {
		var denied bool
		var arg storage.UpdateOrCreateLocationParams
		switch app.LocationVariantFromID(id) {
		case app.EveLocationVariantSolarSystem:
			e, err := s.GetOrCreateEntityESI(ctx, int32(id))
			if err != nil {
				return nil, err
			}
			arg = storage.UpdateOrCreateLocationParams{
				ID:               id,
				Name:             e.Name,
				EveSolarSystemID: optional.New(e.ID),
			}
		case app.EveLocationVariantStation:
			station, _, err := s.esiClient.ESI.UniverseApi.GetUniverseStationsStationId(ctx, int32(id), nil)
			if err != nil {
				return nil, err
			}
			ids := set.Of(station.SystemId, station.TypeId)
			if station.Owner != 0 {
				ids.Add(station.Owner)
			}
			if _, err := s.AddMissingEntities(ctx, ids); err != nil {
				return nil, err
			}
			arg = storage.UpdateOrCreateLocationParams{
				ID:               id,
				Name:             station.Name,
				EveSolarSystemID: optional.New(station.SystemId),
				EveTypeID:        optional.New(station.TypeId),
			}
			if station.Owner != 0 {
				arg.OwnerID = optional.New(station.Owner)
			}
		case app.EveLocationVariantStructure:
			if ctx.Value(goesi.ContextAccessToken) == nil {
				return nil, fmt.Errorf("eve location: token not set for fetching structure: %d", id)
			}
			structure, r, err := s.esiClient.ESI.UniverseApi.GetUniverseStructuresStructureId(ctx, id, nil)
			if err != nil {
				if r != nil && isStructureDenied(r.StatusCode) {
					denied = true
					arg = storage.UpdateOrCreateLocationParams{ID: id}
					break
				}
				return nil, err
			}
			ids := set.Of(structure.SolarSystemId, structure.OwnerId)
			if structure.TypeId != 0 {
				ids.Add(structure.TypeId)
			}
			if _, err := s.AddMissingEntities(ctx, ids); err != nil {
				return nil, err
			}
			arg = storage.UpdateOrCreateLocationParams{
				ID:               id,
				Name:             structure.Name,
				EveSolarSystemID: optional.New(structure.SolarSystemId),
				OwnerID:          optional.New(structure.OwnerId),
			}
			if structure.TypeId != 0 {
				arg.EveTypeID = optional.New(structure.TypeId)
			}
		default:
			return nil, fmt.Errorf("eve location: invalid ID in update or create: %d", id)
		}
		arg.UpdatedAt = s.Now()
		if err := s.st.UpdateOrCreateEveLocation(ctx, arg); err != nil {
			return nil, err
		}
		o, err := s.st.GetLocation(ctx, id)
		if err != nil {
			return nil, err
		}
		return locationResult{location: o, denied: denied}, nil
	})
	if err != nil {
		return locationResult{}, err
	}
	return y.(locationResult), nil
}

// isStructureDenied reports whether a structure lookup failed because the
// character may not see it. A 404 behaves like a denial here, structures
// are hidden rather than reported missing.
func isStructureDenied(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
