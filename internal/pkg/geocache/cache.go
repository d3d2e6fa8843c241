// Package geocache memoizes location lookups on a per-category coordinate grid.
package geocache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// Category selects the grid resolution and the bucket an entry lives in.
type Category string

const (
	Address Category = "address"
	Highway Category = "highway"
	POIs    Category = "pois"
)

const (
	DefaultMaxAge     = 10 * time.Minute
	DefaultMaxEntries = 100

	defaultGrid = 0.0005
)

// Grid sizes in degrees. Addresses need house-level precision (~11 m);
// highway identity is stable over ~110 m.
var grids = map[Category]float64{
	Address: 0.0001,
	Highway: 0.001,
	POIs:    0.0003,
}

// Backend is an optional shared second level, usually Valkey.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}

type entry struct {
	value    any
	storedAt time.Time
}

type bucket struct {
	entries map[string]*entry
	order   []string // insertion order, oldest first
}

func (b *bucket) remove(key string) {
	delete(b.entries, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}

// Cache is safe for concurrent use. Its presence never changes what a
// resolver returns, only how often providers are called.
type Cache struct {
	mu         sync.Mutex
	maxAge     time.Duration
	maxEntries int
	clk        clock.Clock
	backend    Backend
	buckets    map[Category]*bucket
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxAge sets how long an entry stays valid.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.maxAge = d }
}

// WithMaxEntries sets the per-category capacity.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithClock sets the clock used for timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clk = clk }
}

// WithBackend enables write-through to a shared store.
func WithBackend(b Backend) Option {
	return func(c *Cache) { c.backend = b }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		maxAge:     DefaultMaxAge,
		maxEntries: DefaultMaxEntries,
		clk:        clock.New(),
		buckets:    make(map[Category]*bucket),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GridSize returns the grid resolution of a category in degrees.
func GridSize(cat Category) float64 {
	if g, ok := grids[cat]; ok {
		return g
	}
	return defaultGrid
}

// GridKey quantizes a coordinate to the category grid.
func GridKey(cat Category, lat, lon float64) string {
	g := GridSize(cat)
	return fmt.Sprintf("%.6f,%.6f", math.Round(lat/g)*g, math.Round(lon/g)*g)
}

// Get returns the in-memory value for the cell containing (lat, lon).
func (c *Cache) Get(cat Category, lat, lon float64) (any, bool) {
	key := GridKey(cat, lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[cat]
	if !ok {
		return nil, false
	}
	e, ok := b.entries[key]
	if !ok {
		return nil, false
	}
	if c.clk.Now().Sub(e.storedAt) > c.maxAge {
		b.remove(key)
		metrics.CacheEvictions.WithLabelValues(string(cat), "expired").Inc()
		return nil, false
	}
	return e.value, true
}

// Set stores v for the cell containing (lat, lon).
func (c *Cache) Set(cat Category, lat, lon float64, v any) {
	c.setAt(cat, GridKey(cat, lat, lon), v, c.clk.Now())
}

func (c *Cache) setAt(cat Category, key string, v any, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[cat]
	if !ok {
		b = &bucket{entries: make(map[string]*entry)}
		c.buckets[cat] = b
	}

	if e, exists := b.entries[key]; exists {
		e.value = v
		e.storedAt = storedAt
		return
	}

	b.entries[key] = &entry{value: v, storedAt: storedAt}
	b.order = append(b.order, key)

	for len(b.order) > c.maxEntries {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, oldest)
		metrics.CacheEvictions.WithLabelValues(string(cat), "capacity").Inc()
	}
}

// Len returns the number of entries held for a category.
func (c *Cache) Len(cat Category) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.buckets[cat]; ok {
		return len(b.entries)
	}
	return 0
}

// Purge drops every in-memory entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.buckets = make(map[Category]*bucket)
	c.mu.Unlock()
}

type remoteEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

func remoteKey(cat Category, key string) string {
	return "geo:" + string(cat) + ":" + key
}

// Lookup returns a typed value, consulting the backend on a memory miss.
// A nil cache always misses.
// Backend hits are copied into memory with their original timestamp.
func Lookup[T any](ctx context.Context, c *Cache, cat Category, lat, lon float64) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	if v, ok := c.Get(cat, lat, lon); ok {
		if typed, ok := v.(T); ok {
			metrics.CacheHits.WithLabelValues(string(cat)).Inc()
			return typed, true
		}
	}

	if c.backend == nil {
		metrics.CacheMisses.WithLabelValues(string(cat)).Inc()
		return zero, false
	}

	key := GridKey(cat, lat, lon)
	data, err := c.backend.Get(ctx, remoteKey(cat, key))
	if err != nil {
		metrics.CacheMisses.WithLabelValues(string(cat)).Inc()
		return zero, false
	}

	var re remoteEntry
	if err := json.Unmarshal(data, &re); err != nil || c.clk.Now().Sub(re.StoredAt) > c.maxAge {
		metrics.CacheMisses.WithLabelValues(string(cat)).Inc()
		return zero, false
	}

	var v T
	if err := json.Unmarshal(re.Value, &v); err != nil {
		metrics.CacheMisses.WithLabelValues(string(cat)).Inc()
		return zero, false
	}

	c.setAt(cat, key, v, re.StoredAt)
	metrics.CacheHits.WithLabelValues(string(cat)).Inc()
	return v, true
}

// Save stores a typed value in memory and, when configured, the backend.
// Backend failures are ignored. A nil cache stores nothing.
func Save[T any](ctx context.Context, c *Cache, cat Category, lat, lon float64, v T) {
	if c == nil {
		return
	}
	key := GridKey(cat, lat, lon)
	now := c.clk.Now()
	c.setAt(cat, key, v, now)

	if c.backend == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	data, err := json.Marshal(remoteEntry{StoredAt: now, Value: raw})
	if err != nil {
		return
	}
	_ = c.backend.Set(ctx, remoteKey(cat, key), data, int(c.maxAge.Seconds()))
}
