// Package eveuniverseservice maintains the local cache of shared EVE
// reference objects with on-demand loading from ESI.
package eveuniverseservice

import (
	"context"
	"time"

	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/errorcounter"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

// EveUniverseService resolves entity and location references.
type EveUniverseService struct {
	// Now returns the current time in UTC. Can be overwritten for tests.
	Now func() time.Time

	// TokenForCharacter returns a valid access token for a character.
	// Wired after construction to avoid a dependency cycle with the
	// character service.
	TokenForCharacter func(ctx context.Context, characterID int32) (string, error)

	counter   *errorcounter.CounterService
	esiClient *goesi.APIClient
	queue     *taskqueue.Queue
	sfg       *singleflight.Group
	st        *storage.Storage
}

type Params struct {
	ESIClient    *goesi.APIClient
	ErrorCounter *errorcounter.CounterService
	Queue        *taskqueue.Queue
	Storage      *storage.Storage
}

// New returns a new instance of an Eve universe service.
func New(args Params) *EveUniverseService {
	s := &EveUniverseService{
		counter:   args.ErrorCounter,
		esiClient: args.ESIClient,
		queue:     args.Queue,
		sfg:       new(singleflight.Group),
		st:        args.Storage,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
	return s
}
