// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/rendezvous/internal/metrics"
)

// ErrCacheMiss is returned by Lookup when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Fetcher loads the value for a key on a cache miss.
type Fetcher[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Fetches       int64     `json:"fetches"`
	Evictions     int64     `json:"evictions"`
	Invalidations int64     `json:"invalidations"`
	Entries       int       `json:"entries"`
	LastCleanup   time.Time `json:"last_cleanup"`
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Option configures a ResultCache.
type Option func(*options)

type options struct {
	name            string
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithName sets the cache_type label used for metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithCleanupInterval sets how often expired entries are swept.
// Zero or negative disables the background sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// ResultCache is a TTL cache of fetched query results with prefix
// invalidation.
//
// Concurrent misses for one key share a single fetch, which runs detached
// from the callers' cancellation so one caller giving up does not fail the
// others. Failed fetches are never stored. A fetch that started before an
// invalidation is returned to its callers but not stored, and callers
// arriving after the invalidation start a fresh fetch instead of joining it.
//
// The zero value is not usable; call NewResultCache.
type ResultCache[V any] struct {
	name string
	now  func() time.Time

	mu         sync.RWMutex
	entries    map[string]entry[V]
	index      *Trie
	generation uint64

	group singleflight.Group

	hits          atomic.Int64
	misses        atomic.Int64
	fetches       atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64
	lastCleanup   atomic.Int64 // unix nanos

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewResultCache creates a cache and starts its cleanup loop when a cleanup
// interval is configured. Call Close to stop the loop.
func NewResultCache[V any](opts ...Option) *ResultCache[V] {
	o := options{name: "results", cleanupInterval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &ResultCache[V]{
		name:    o.name,
		now:     o.now,
		entries: make(map[string]entry[V]),
		index:   NewCaseSensitiveTrie(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.lastCleanup.Store(c.now().UnixNano())

	if o.cleanupInterval > 0 {
		go c.cleanupLoop(o.cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

// Lookup returns the unexpired value for key or ErrCacheMiss.
func (c *ResultCache[V]) Lookup(key string) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.value, nil
	}
	if ok {
		c.removeIfExpired(key)
	}
	var zero V
	return zero, ErrCacheMiss
}

// Get returns the cached value for key, calling fetch on a miss and storing
// its result for ttl. A ttl <= 0 fetches without storing.
func (c *ResultCache[V]) Get(ctx context.Context, key string, fetch Fetcher[V], ttl time.Duration) (V, error) {
	v, _, err := c.Fetch(ctx, key, fetch, ttl)
	return v, err
}

// Fetch is Get that also reports whether the value came from the cache.
func (c *ResultCache[V]) Fetch(ctx context.Context, key string, fetch Fetcher[V], ttl time.Duration) (V, bool, error) {
	var zero V

	if v, err := c.Lookup(key); err == nil {
		c.hits.Add(1)
		metrics.RecordCacheLookup(c.name, true)
		return v, true, nil
	}
	c.misses.Add(1)
	metrics.RecordCacheLookup(c.name, false)

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends. The generation in the flight key
	// keeps callers that arrive after an invalidation off an older fetch.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		c.fetches.Add(1)
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, ttl, gen)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}

func (c *ResultCache[V]) store(key string, v V, ttl time.Duration, gen uint64) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Invalidated while fetching.
	if c.generation != gen {
		return
	}
	c.entries[key] = entry[V]{value: v, expiresAt: c.now().Add(ttl)}
	c.index.Insert(key)
	metrics.SetCacheSize(c.name, len(c.entries))
}

func (c *ResultCache[V]) removeIfExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Before(e.expiresAt) {
		return
	}
	delete(c.entries, key)
	c.index.Delete(key)
	c.evictions.Add(1)
	metrics.RecordCacheEvictions(c.name, 1)
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed. An empty prefix removes everything.
// In-flight fetches started before the call will not be stored.
func (c *ResultCache[V]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	keys := c.index.KeysWithPrefix(prefix)
	for _, key := range keys {
		delete(c.entries, key)
		c.index.Delete(key)
	}

	n := len(keys)
	c.invalidations.Add(int64(n))
	metrics.RecordCacheInvalidation(c.name, n)
	metrics.SetCacheSize(c.name, len(c.entries))
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *ResultCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache[V]) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Fetches:       c.fetches.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.Len(),
		LastCleanup:   time.Unix(0, c.lastCleanup.Load()),
	}
}

// Close stops the cleanup loop. It is safe to call more than once.
func (c *ResultCache[V]) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *ResultCache[V]) cleanupLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Cleanup removes expired entries and returns how many were removed.
func (c *ResultCache[V]) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			c.index.Delete(key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.evictions.Add(int64(removed))
	c.lastCleanup.Store(now.UnixNano())
	metrics.RecordCacheEvictions(c.name, removed)
	metrics.SetCacheSize(c.name, size)
	return removed
}
