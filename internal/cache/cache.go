// Package cache provides time-bounded caches with lazy eviction and an optional
// shared second tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Store is a shared second-tier cache (Redis, Postgres). Implementations must be safe
// for concurrent use. A missing key is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Recorder receives cache lookups; tier is "l1" or "l2", result is "hit", "miss" or "expired".
type Recorder interface {
	CacheLookup(cache, tier, result string)
}

// Entry is one cached value and the time it was produced.
type Entry[V any] struct {
	Key       string    `json:"key"`
	Value     V         `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Option configures a TTLCache.
type Option func(*options)

type options struct {
	now      func() time.Time
	store    Store
	logger   *zap.Logger
	recorder Recorder
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStore adds a second tier behind the in-memory map.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the logger used for second-tier failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder reports hits and misses.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// TTLCache is a process-wide cache whose entries expire ttl after creation.
// Expired entries are removed when read; nothing sweeps in the background.
// Concurrent writers of the same key race last-writer-wins.
type TTLCache[V any] struct {
	name     string
	ttl      time.Duration
	l1       sync.Map // key → Entry[V]
	now      func() time.Time
	store    Store
	logger   *zap.Logger
	recorder Recorder

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns an empty cache. name labels logs and metrics.
func New[V any](name string, ttl time.Duration, opts ...Option) *TTLCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &TTLCache[V]{
		name:     name,
		ttl:      ttl,
		now:      o.now,
		store:    o.store,
		logger:   o.logger.With(zap.String("cache", name)),
		recorder: o.recorder,
	}
}

// TTL returns the entry lifetime.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the live value for key. L1 is consulted first; an L2 hit repopulates L1
// with its original creation time.
func (c *TTLCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	if val, ok := c.l1.Load(key); ok {
		entry := val.(Entry[V])
		if c.fresh(entry.CreatedAt) {
			c.record("l1", "hit")
			c.hits.Add(1)
			return entry.Value, true
		}
		// only drop the entry we inspected; a concurrent Set may have replaced it
		c.l1.CompareAndDelete(key, val)
		c.record("l1", "expired")
	}

	if c.store != nil {
		if entry, ok := c.loadL2(ctx, key); ok {
			c.l1.Store(key, entry)
			c.record("l2", "hit")
			c.hits.Add(1)
			return entry.Value, true
		}
	}

	c.record("l1", "miss")
	c.misses.Add(1)
	return zero, false
}

// Set stores value as created now in both tiers. Second-tier failures are logged only.
func (c *TTLCache[V]) Set(ctx context.Context, key string, value V) {
	entry := Entry[V]{Key: key, Value: value, CreatedAt: c.now()}
	c.l1.Store(key, entry)

	if c.store == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache: encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache: L2 set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes key from the in-memory tier.
func (c *TTLCache[V]) Delete(key string) {
	c.l1.Delete(key)
}

// Len counts in-memory entries, expired ones included.
func (c *TTLCache[V]) Len() int {
	n := 0
	c.l1.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Stats returns hit and miss counters.
func (c *TTLCache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *TTLCache[V]) loadL2(ctx context.Context, key string) (Entry[V], bool) {
	var entry Entry[V]
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache: L2 get failed", zap.String("key", key), zap.Error(err))
		return entry, false
	}
	if !ok {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("cache: L2 entry corrupt", zap.String("key", key), zap.Error(err))
		return entry, false
	}
	if !c.fresh(entry.CreatedAt) {
		c.record("l2", "expired")
		return entry, false
	}
	return entry, true
}

func (c *TTLCache[V]) fresh(createdAt time.Time) bool {
	return c.now().Sub(createdAt) < c.ttl
}

func (c *TTLCache[V]) record(tier, result string) {
	if c.recorder != nil {
		c.recorder.CacheLookup(c.name, tier, result)
	}
}

// Key builds a deterministic cache key from a logical query type and its parts.
func Key(queryType string, parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("rm:%s:%x", queryType, hash[:12])
}
