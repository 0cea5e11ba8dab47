// Package metadata provides a persistent cache in front of the movie catalog.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Cache stores catalog responses in the metadata_cache table.
// Entries past expires_at read as misses until Prune removes them.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// NewCache creates a new metadata cache.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the value stored under key, or nil, false on miss or expiry.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		value     string
		expiresAt time.Time
	)
	row := c.db.QueryRowContext(ctx, `SELECT value, expires_at FROM metadata_cache WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		return nil, false
	}
	if !c.now().Before(expiresAt) {
		return nil, false
	}
	return []byte(value), true
}

// Set upserts value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO metadata_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(value), c.now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

// Prune removes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE expires_at <= ?`, c.now())
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache len: %w", err)
	}
	return n, nil
}
