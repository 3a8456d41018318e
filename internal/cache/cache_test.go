package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.sets++
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) CacheLookup(cache, tier, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[cache+"/"+tier+"/"+result]++
}

func TestTTLCache_HitWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[string]("search", time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	clock.Advance(59 * time.Minute)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), misses)
}

func TestTTLCache_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	clock := newFakeClock()
	c := New[string]("validation", time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	require.Equal(t, 1, c.Len())

	clock.Advance(time.Hour)
	// still present until someone reads it
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_SetAfterExpiryRefreshes(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("search", time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "k", 1)
	clock.Advance(2 * time.Minute)
	c.Set(ctx, "k", 2)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTTLCache_SecondTier(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	ctx := context.Background()

	writer := New[[]string]("search", time.Hour, WithClock(clock.Now), WithStore(store))
	writer.Set(ctx, "k", []string{"a", "b"})
	assert.Equal(t, 1, store.sets)

	// a fresh process sees the entry through the store
	rec := &countingRecorder{}
	reader := New[[]string]("search", time.Hour, WithClock(clock.Now), WithStore(store), WithRecorder(rec))
	got, ok := reader.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, reader.Len())
	assert.Equal(t, 1, rec.counts["search/l2/hit"])

	// the original creation time travels with the entry
	clock.Advance(time.Hour)
	_, ok = reader.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, rec.counts["search/l2/expired"])
}

func TestTTLCache_StoreErrorsAreMisses(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	c := New[string]("search", time.Hour, WithStore(store))

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTTLCache_CorruptStoreEntryIsMiss(t *testing.T) {
	store := newMemStore()
	store.data["k"] = []byte("{not json")
	c := New[string]("search", time.Hour, WithStore(store))

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := New[int]("search", time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "shared", i)
			_, _ = c.Get(ctx, "shared")
		}(i)
	}
	wg.Wait()

	_, ok := c.Get(ctx, "shared")
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	a := Key("skill-search", "java", "3", "en")
	b := Key("skill-search", "java", "3", "en")
	c := Key("occupation-search", "java", "3", "en")
	d := Key("skill-search", "java", "5", "en")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "rm:skill-search:")
	assert.Len(t, a, len("rm:skill-search:")+24)
}
