package cache

import (
	"sync/atomic"

	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/types"
)

// entry keeps the canonical path alongside the result so path-addressed
// invalidation can find content-addressed keys.
type entry struct {
	result *types.AnalysisResult
	path   string
}

// ResultCache is a bounded, content-addressed store of analysis results.
// Concurrent requests for the same key share a single computation.
type ResultCache struct {
	store otter.Cache[string, entry]
	group singleflight.Group

	hits     int64
	misses   int64
	computes int64
}

// New builds a cache holding at most capacity entries; otter evicts the
// coldest entries once full.
func New(capacity int) (*ResultCache, error) {
	store, err := otter.MustBuilder[string, entry](capacity).Build()
	if err != nil {
		return nil, err
	}
	return &ResultCache{store: store}, nil
}

// GetOrCompute returns the cached result for key, or runs compute exactly
// once across all concurrent callers and stores its result. The bool
// reports a cache hit. Failed computations are never stored.
func (c *ResultCache) GetOrCompute(key, canonicalPath string, compute func() (*types.AnalysisResult, error)) (*types.AnalysisResult, bool, error) {
	if cached, ok := c.store.Get(key); ok {
		atomic.AddInt64(&c.hits, 1)
		debug.LogCache("hit %s (%s)\n", key, canonicalPath)
		return cached.result, true, nil
	}
	atomic.AddInt64(&c.misses, 1)

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// A racing caller may have stored the entry between our Get and
		// the flight starting.
		if cached, ok := c.store.Get(key); ok {
			return cached.result, nil
		}
		atomic.AddInt64(&c.computes, 1)
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.store.Set(key, entry{result: result, path: canonicalPath})
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		debug.LogCache("shared flight %s (%s)\n", key, canonicalPath)
	}
	return v.(*types.AnalysisResult), false, nil
}

// Invalidate drops every entry recorded under the canonical path. Keys
// are content-addressed, so this is a scan, not a lookup.
func (c *ResultCache) Invalidate(canonicalPath string) int {
	var stale []string
	c.store.Range(func(key string, e entry) bool {
		if e.path == canonicalPath {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		c.store.Delete(key)
	}
	if len(stale) > 0 {
		debug.LogCache("invalidated %d entries for %s\n", len(stale), canonicalPath)
	}
	return len(stale)
}

// Reset empties the cache and zeroes the counters.
func (c *ResultCache) Reset() {
	c.store.Clear()
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.computes, 0)
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Computes int64   `json:"computes"`
	Entries  int     `json:"entries"`
	HitRate  float64 `json:"hit_rate"`
}

func (c *ResultCache) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	rate := float64(0)
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:     hits,
		Misses:   misses,
		Computes: atomic.LoadInt64(&c.computes),
		Entries:  c.store.Size(),
		HitRate:  rate,
	}
}

// Close releases the store's background resources.
func (c *ResultCache) Close() {
	c.store.Close()
}
