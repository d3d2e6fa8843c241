package geocache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geofotos/internal/pkg/geocache"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[string][]byte)} }

func (m *memBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("valkey nil message")
	}
	return v, nil
}

func (m *memBackend) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func TestGridKey_SameCell(t *testing.T) {
	a := geocache.GridKey(geocache.Address, -27.59541, -48.54821)
	b := geocache.GridKey(geocache.Address, -27.59543, -48.54819)
	assert.Equal(t, a, b)
	assert.Equal(t, "-27.595400,-48.548200", a)

	// Highway cells are ten times wider than address cells.
	assert.Equal(t,
		geocache.GridKey(geocache.Highway, -27.5951, -48.5481),
		geocache.GridKey(geocache.Highway, -27.5954, -48.5484),
	)
	assert.NotEqual(t,
		geocache.GridKey(geocache.Address, -27.5951, -48.5481),
		geocache.GridKey(geocache.Address, -27.5954, -48.5484),
	)
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 0.0001, geocache.GridSize(geocache.Address))
	assert.Equal(t, 0.001, geocache.GridSize(geocache.Highway))
	assert.Equal(t, 0.0003, geocache.GridSize(geocache.POIs))
	assert.Equal(t, 0.0005, geocache.GridSize("other"))
}

func TestCache_GetSet(t *testing.T) {
	c := geocache.New()

	_, ok := c.Get(geocache.Address, -27.5954, -48.5482)
	assert.False(t, ok)

	c.Set(geocache.Address, -27.5954, -48.5482, "Rua A")
	v, ok := c.Get(geocache.Address, -27.59541, -48.54821)
	require.True(t, ok)
	assert.Equal(t, "Rua A", v)

	// Categories do not share entries.
	_, ok = c.Get(geocache.Highway, -27.5954, -48.5482)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	mock := clock.NewMock()
	c := geocache.New(geocache.WithClock(mock))

	c.Set(geocache.POIs, 1, 1, "ponte")

	mock.Add(10 * time.Minute)
	_, ok := c.Get(geocache.POIs, 1, 1)
	assert.True(t, ok, "entry exactly at max age is still valid")

	mock.Add(time.Second)
	_, ok = c.Get(geocache.POIs, 1, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(geocache.POIs), "expired entry is evicted on detection")
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	c := geocache.New()

	for i := 0; i < 101; i++ {
		c.Set(geocache.Address, float64(i), 0, i)
	}

	assert.Equal(t, 100, c.Len(geocache.Address))
	_, ok := c.Get(geocache.Address, 0, 0)
	assert.False(t, ok, "first inserted entry must be evicted")
	v, ok := c.Get(geocache.Address, 1, 0)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCache_ResetKeepsInsertionPosition(t *testing.T) {
	c := geocache.New(geocache.WithMaxEntries(2))

	c.Set(geocache.Address, 0, 0, "a")
	c.Set(geocache.Address, 1, 0, "b")
	c.Set(geocache.Address, 0, 0, "a2")
	c.Set(geocache.Address, 2, 0, "c")

	_, ok := c.Get(geocache.Address, 0, 0)
	assert.False(t, ok)
	v, ok := c.Get(geocache.Address, 1, 0)
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

type place struct {
	Name string `json:"name"`
}

func TestLookup_TypedMemoryHit(t *testing.T) {
	c := geocache.New()
	ctx := context.Background()

	geocache.Save(ctx, c, geocache.Highway, 1, 2, place{Name: "BR-101"})

	got, ok := geocache.Lookup[place](ctx, c, geocache.Highway, 1, 2)
	require.True(t, ok)
	assert.Equal(t, "BR-101", got.Name)

	_, ok = geocache.Lookup[string](ctx, c, geocache.Highway, 1, 2)
	assert.False(t, ok, "type mismatch is a miss")
}

func TestLookup_BackendFill(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	backend := newMemBackend()

	writer := geocache.New(geocache.WithClock(mock), geocache.WithBackend(backend))
	geocache.Save(ctx, writer, geocache.POIs, -27.5, -48.5, []place{{Name: "Ponte Hercílio Luz"}})
	assert.Equal(t, 1, backend.sets)

	reader := geocache.New(geocache.WithClock(mock), geocache.WithBackend(backend))
	got, ok := geocache.Lookup[[]place](ctx, reader, geocache.POIs, -27.5, -48.5)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Ponte Hercílio Luz", got[0].Name)
	assert.Equal(t, 1, reader.Len(geocache.POIs))

	// Entries carry their original timestamp, so the shared copy expires too.
	mock.Add(11 * time.Minute)
	fresh := geocache.New(geocache.WithClock(mock), geocache.WithBackend(backend))
	_, ok = geocache.Lookup[[]place](ctx, fresh, geocache.POIs, -27.5, -48.5)
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := geocache.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(geocache.POIs, float64(i%10), 0, fmt.Sprint(i))
			_, _ = c.Get(geocache.POIs, float64(i%10), 0)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, c.Len(geocache.POIs))
}
