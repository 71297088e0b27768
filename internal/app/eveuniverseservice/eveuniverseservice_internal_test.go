package eveuniverseservice

import (
	"time"

	"github.com/antihax/goesi"

	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/errorcounter"
	"github.com/staropera/aa-memberaudit/internal/memcache"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

func NewTestService(st *storage.Storage) *EveUniverseService {
	s := New(Params{
		Storage:      st,
		ESIClient:    goesi.NewAPIClient(nil, "test@example.net"),
		ErrorCounter: errorcounter.New(memcache.New(), time.Hour),
		Queue:        taskqueue.New(),
	})
	return s
}
