// Package simcache caches simulation results by context hash and guarantees
// at most one concurrent computation per hash: duplicate requests for an
// identical context wait for the in-flight computation and share its result.
package simcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simulation"
)

// Key identifies one cached result.
type Key struct {
	ContextHash string
	GameID      string
	MarketType  models.MarketType
}

// String returns string representation of the cache key
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ContextHash, k.GameID, k.MarketType)
}

type call struct {
	done   chan struct{}
	result *simulation.Result
	err    error
}

// Cache is a TTL result cache with in-flight deduplication.
type Cache struct {
	store    *cache.Cache
	mu       sync.Mutex
	inflight map[string]*call
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		store:    cache.New(ttl, ttl*2),
		inflight: make(map[string]*call),
	}
}

// Get returns the cached result for key, if any.
func (c *Cache) Get(key Key) (*simulation.Result, bool) {
	if v, found := c.store.Get(key.String()); found {
		if result, ok := v.(*simulation.Result); ok {
			metrics.CacheHitsTotal.Inc()
			return result, true
		}
	}
	metrics.CacheMissesTotal.Inc()
	return nil, false
}

// GetOrCompute returns the cached result or runs compute exactly once for
// concurrent callers with the same key. A failed computation is not cached;
// partially-run work never becomes a "completed" entry because compute only
// returns whole results.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func() (*simulation.Result, error)) (*simulation.Result, error) {
	if result, found := c.Get(key); found {
		return result, nil
	}

	c.mu.Lock()
	if inflight, ok := c.inflight[key.String()]; ok {
		c.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.result, inflight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key.String()] = cl
	c.mu.Unlock()

	metrics.InFlightSimulations.Inc()
	cl.result, cl.err = compute()
	metrics.InFlightSimulations.Dec()
	close(cl.done)

	c.mu.Lock()
	delete(c.inflight, key.String())
	c.mu.Unlock()

	if cl.err == nil && cl.result != nil {
		c.Upsert(key, cl.result)
	}
	return cl.result, cl.err
}

// Upsert stores a result under key, replacing any previous entry.
func (c *Cache) Upsert(key Key, result *simulation.Result) {
	c.store.SetDefault(key.String(), result)
}

// Transition applies a status transition to a cached result without touching
// its numeric fields, returning the previous status and whether an entry
// existed. The replacement is a copy; cached results stay immutable to their
// readers.
func (c *Cache) Transition(key Key, status models.SimStatus) (models.SimStatus, bool) {
	v, found := c.store.Get(key.String())
	if !found {
		return "", false
	}
	result, ok := v.(*simulation.Result)
	if !ok {
		return "", false
	}

	updated := *result
	updated.Status = status
	c.store.SetDefault(key.String(), &updated)
	return result.Status, true
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key Key) {
	c.store.Delete(key.String())
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
