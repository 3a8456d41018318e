package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CacheEntry is a row of cache_entries.
type CacheEntry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsFresh reports whether the entry has not yet expired at now.
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// GetCacheEntry returns the entry for key, or nil if absent.
func (db *DB) GetCacheEntry(ctx context.Context, key string) (*CacheEntry, error) {
	var e CacheEntry
	err := db.pool.QueryRow(ctx,
		`SELECT cache_key, payload, created_at, expires_at FROM cache_entries WHERE cache_key = $1`,
		key,
	).Scan(&e.Key, &e.Payload, &e.CreatedAt, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &e, nil
}

// UpsertCacheEntry writes payload under key, replacing any previous entry.
func (db *DB) UpsertCacheEntry(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO cache_entries (cache_key, payload, created_at, expires_at)
		 VALUES ($1, $2, NOW(), NOW() + $3 * INTERVAL '1 second')
		 ON CONFLICT (cache_key) DO UPDATE
		 SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		key, payload, ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes key.
func (db *DB) DeleteCacheEntry(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM cache_entries WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PurgeExpiredCacheEntries deletes every expired row and returns how many were removed.
func (db *DB) PurgeExpiredCacheEntries(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CacheStore adapts DB to the cache package's Store interface. Expired rows read as
// misses and are deleted lazily.
type CacheStore struct {
	db  *DB
	now func() time.Time
}

// NewCacheStore returns a Store over db.
func NewCacheStore(db *DB) *CacheStore {
	return &CacheStore{db: db, now: time.Now}
}

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.db.GetCacheEntry(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	if !entry.IsFresh(s.now()) {
		_ = s.db.DeleteCacheEntry(ctx, key)
		return nil, false, nil
	}
	return entry.Payload, true, nil
}

// Set implements cache.Store.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.UpsertCacheEntry(ctx, key, value, ttl)
}
