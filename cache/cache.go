// Package cache memoizes simulation trajectories. Interactive parameter
// scrubbing revisits the same combinations constantly; keying runs by their
// full input makes a revisit free.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/popdyn-xyz/go-popdyn/solver"
)

// RunCache caches trajectories keyed by a hash of the run inputs.
type RunCache struct {
	mu        sync.RWMutex
	cache     map[string]*solver.Trajectory
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewRunCache creates a cache with the specified maximum size.
// When the cache is full, an arbitrary entry is evicted.
// Set maxSize to 0 for an unlimited cache.
func NewRunCache(maxSize int) *RunCache {
	return &RunCache{
		cache:   make(map[string]*solver.Trajectory),
		maxSize: maxSize,
	}
}

// Key hashes a run's full input: model name, parameters, initial state, and
// time span. Identical inputs produce identical trajectories, so the hash is
// a sound cache key.
func Key(modelName string, params, u0 []float64, tspan [2]float64) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	buf := make([]byte, 8)
	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, v := range params {
		writeFloat(v)
	}
	for _, v := range u0 {
		writeFloat(v)
	}
	writeFloat(tspan[0])
	writeFloat(tspan[1])
	return string(h.Sum(nil))
}

// Get retrieves a cached trajectory, or nil.
func (c *RunCache) Get(key string) *solver.Trajectory {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tr, ok := c.cache[key]; ok {
		c.hits++
		return tr
	}
	c.misses++
	return nil
}

// Put stores a trajectory in the cache.
func (c *RunCache) Put(key string, tr *solver.Trajectory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}

	c.cache[key] = tr
}

// GetOrCompute retrieves from cache or computes and caches the result.
// Compute errors are returned as-is and nothing is cached.
func (c *RunCache) GetOrCompute(key string, compute func() (*solver.Trajectory, error)) (*solver.Trajectory, error) {
	if tr := c.Get(key); tr != nil {
		return tr, nil
	}
	tr, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, tr)
	return tr, nil
}

// Clear removes all entries from the cache.
func (c *RunCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*solver.Trajectory)
}

// Size returns the current number of cached entries.
func (c *RunCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns cache statistics.
func (c *RunCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
