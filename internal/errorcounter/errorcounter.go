// Package errorcounter provides an expiring error counter shared by
// concurrent workers. It backs the circuit breaker that protects upstream
// lookups from error storms.
package errorcounter

import (
	"sync"
	"time"

	"github.com/staropera/aa-memberaudit/internal/memcache"
)

// A CounterService counts errors per key within a time window.
// Counts expire with the window, so the breaker self heals without an
// explicit reset.
type CounterService struct {
	mu     sync.Mutex
	cache  *memcache.Cache
	window time.Duration
}

// New returns a new CounterService. Counts expire after window.
func New(cache *memcache.Cache, window time.Duration) *CounterService {
	return &CounterService{cache: cache, window: window}
}

// Count returns the current count for a key. Expired counts are 0.
func (cs *CounterService) Count(key string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.count(key)
}

// Increment adds 1 to the count of a key and returns the new count.
// A missing or expired key is created with count 1.
// Increment is atomic across goroutines.
func (cs *CounterService) Increment(key string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	n := cs.count(key) + 1
	cs.cache.Set(key, n, cs.window)
	return n
}

func (cs *CounterService) count(key string) int {
	x, ok := cs.cache.Get(key)
	if !ok {
		return 0
	}
	return x.(int)
}
