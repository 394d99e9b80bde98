// Package cache memoizes inference results by input assignment.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/snow-ghost/fuzzyctl/engine"
	"golang.org/x/sync/singleflight"
)

// ResultCache wraps an engine and reuses results for repeated input
// assignments. Concurrent misses on the same assignment share one
// evaluation. Cached results are shared between callers and must not be
// modified.
type ResultCache struct {
	engine *engine.Engine
	cache  *lru.Cache[CacheKey, *engine.Result]
	group  singleflight.Group
	onHit  func(hit bool)

	mu    sync.Mutex
	stats CacheStats
}

var _ engine.Evaluator = (*ResultCache)(nil)

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithHitObserver calls fn on every lookup with whether it hit.
func WithHitObserver(fn func(hit bool)) Option {
	return func(c *ResultCache) { c.onHit = fn }
}

// NewResultCache creates a cache in front of eng
func NewResultCache(eng *engine.Engine, config *CacheConfig, opts ...Option) (*ResultCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	c := &ResultCache{
		engine: eng,
		onHit:  func(bool) {},
		stats:  CacheStats{MaxSize: config.MaxSize},
	}
	cache, err := lru.NewWithEvict[CacheKey, *engine.Result](config.MaxSize, func(CacheKey, *engine.Result) {
		c.mu.Lock()
		c.stats.Evictions++
		c.mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c.cache = cache

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Evaluate returns the cached result for inputs or computes it. Failed
// evaluations are not cached.
func (c *ResultCache) Evaluate(inputs map[string]float64) (*engine.Result, error) {
	key, err := GenerateKey(c.engine.Name(), inputs)
	if err != nil {
		// Values JSON cannot encode (±Inf) are evaluated directly.
		c.count(func(s *CacheStats) { s.Uncached++ })
		return c.engine.Evaluate(inputs)
	}

	if res, ok := c.cache.Get(key); ok {
		c.count(func(s *CacheStats) { s.Hits++ })
		c.onHit(true)
		return res, nil
	}
	c.count(func(s *CacheStats) { s.Misses++ })
	c.onHit(false)

	v, err, shared := c.group.Do(string(key), func() (interface{}, error) {
		// A flight that finished between the lookup above and Do has
		// already stored the result.
		if res, ok := c.cache.Peek(key); ok {
			return res, nil
		}
		res, err := c.engine.Evaluate(inputs)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, res)
		return res, nil
	})
	if shared {
		c.count(func(s *CacheStats) { s.Shared++ })
	}
	if err != nil {
		return nil, err
	}
	return v.(*engine.Result), nil
}

func (c *ResultCache) count(fn func(*CacheStats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

// Purge drops every cached result
func (c *ResultCache) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached results
func (c *ResultCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics
func (c *ResultCache) Stats() CacheStats {
	size := c.cache.Len()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = size
	stats.CalculateHitRate()
	return stats
}
