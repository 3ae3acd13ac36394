package repository

import (
	"sync"
	"sync/atomic"

	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/pkg/metrics"
)

type cacheKey struct {
	generation uint64
	filmID     string
}

// CacheStats is a point-in-time view of the listing cache.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
	Floor   uint64
}

// ListingCache memoizes listings per (generation, film id).
//
// Entries below the purge floor are unreachable: Purge drops them and Put
// ignores them, so a slow reader holding an old snapshot cannot repopulate
// a retired generation.
type ListingCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]model.Listing
	floor   uint64

	initialCapacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewListingCache creates an empty cache.
func NewListingCache(opts ...Option) *ListingCache {
	c := &ListingCache{}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[cacheKey]model.Listing, c.initialCapacity)
	return c
}

// Get returns the cached listing for filmID in generation.
func (c *ListingCache) Get(generation uint64, filmID string) (model.Listing, bool) {
	c.mu.RLock()
	l, ok := c.entries[cacheKey{generation: generation, filmID: filmID}]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.RecordListingCacheHit()
	} else {
		c.misses.Add(1)
		metrics.RecordListingCacheMiss()
	}
	return l, ok
}

// Put stores l for filmID in generation unless generation has been purged.
// An existing entry is kept so repeated computations return the first value.
func (c *ListingCache) Put(generation uint64, filmID string, l model.Listing) model.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation < c.floor {
		return l
	}
	key := cacheKey{generation: generation, filmID: filmID}
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = l
	metrics.UpdateListingCacheSize(len(c.entries))
	return l
}

// Purge drops every entry older than generation and raises the floor.
// It returns the number of entries removed.
func (c *ListingCache) Purge(generation uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation > c.floor {
		c.floor = generation
	}
	removed := 0
	for k := range c.entries {
		if k.generation < c.floor {
			delete(c.entries, k)
			removed++
		}
	}
	metrics.UpdateListingCacheSize(len(c.entries))
	return removed
}

// Len returns the number of cached listings.
func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit/miss counters and the current size.
func (c *ListingCache) Stats() CacheStats {
	c.mu.RLock()
	entries, floor := len(c.entries), c.floor
	c.mu.RUnlock()
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
		Floor:   floor,
	}
}
