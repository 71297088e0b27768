// Package characterservice synchronizes character data from ESI into local
// storage, one section at a time.
package characterservice

import (
	"net/http"

	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/staropera/aa-memberaudit/internal/app/eveuniverseservice"
	"github.com/staropera/aa-memberaudit/internal/app/statuscacheservice"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/sso"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

// CharacterService syncs all tracked characters from ESI.
type CharacterService struct {
	esiClient  *goesi.APIClient
	eus        *eveuniverseservice.EveUniverseService
	httpClient *http.Client
	maxMails   int
	queue      *taskqueue.Queue
	scs        *statuscacheservice.StatusCacheService
	sfg        *singleflight.Group
	sso        *sso.SSOService
	st         *storage.Storage
}

type Params struct {
	ESIClient          *goesi.APIClient
	EveUniverseService *eveuniverseservice.EveUniverseService
	HTTPClient         *http.Client
	// MaxMails caps how many mail headers are fetched per sync. 0 means no cap.
	MaxMails           int
	Queue              *taskqueue.Queue
	SSOService         *sso.SSOService
	StatusCacheService *statuscacheservice.StatusCacheService
	Storage            *storage.Storage
}

// New creates and returns a new character service.
// When nil is passed for the HTTP or ESI client a default is created.
func New(args Params) *CharacterService {
	httpClient := args.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	esiClient := args.ESIClient
	if esiClient == nil {
		esiClient = goesi.NewAPIClient(httpClient, "")
	}
	s := &CharacterService{
		esiClient:  esiClient,
		eus:        args.EveUniverseService,
		httpClient: httpClient,
		maxMails:   args.MaxMails,
		queue:      args.Queue,
		scs:        args.StatusCacheService,
		sfg:        new(singleflight.Group),
		sso:        args.SSOService,
		st:         args.Storage,
	}
	return s
}
