package characterservice

import (
	"time"

	"github.com/antihax/goesi"

	"github.com/staropera/aa-memberaudit/internal/app/eveuniverseservice"
	"github.com/staropera/aa-memberaudit/internal/app/statuscacheservice"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/errorcounter"
	"github.com/staropera/aa-memberaudit/internal/memcache"
	"github.com/staropera/aa-memberaudit/internal/sso"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

func NewTestService(st *storage.Storage) *CharacterService {
	esiClient := goesi.NewAPIClient(nil, "test@example.net")
	queue := taskqueue.New()
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		ESIClient:    esiClient,
		ErrorCounter: errorcounter.New(memcache.New(), time.Hour),
		Queue:        queue,
		Storage:      st,
	})
	s := New(Params{
		ESIClient:          esiClient,
		EveUniverseService: eus,
		Queue:              queue,
		SSOService:         sso.New(nil, "client-id-1"),
		StatusCacheService: statuscacheservice.New(memcache.New(), st),
		Storage:            st,
	})
	return s
}
