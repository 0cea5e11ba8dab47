package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reelview/internal/migrations"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, migrations.Apply(db))

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestCache_GetSet_RoundTrip(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	value := []byte(`{"title":"Heat"}`)
	require.NoError(t, cache.Set(ctx, "catalog:movie:heat", value, time.Hour))

	got, ok := cache.Get(ctx, "catalog:movie:heat")
	assert.True(t, ok, "expected to find cached value")
	assert.Equal(t, value, got)
}

func TestCache_Get_NotFound(t *testing.T) {
	cache := NewCache(setupTestDB(t))

	got, ok := cache.Get(context.Background(), "nonexistent-key")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_Set_Overwrites(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("first"), time.Hour))
	require.NoError(t, cache.Set(ctx, "k", []byte("second"), time.Hour))

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_ExpiryAndPrune(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	now := time.Now()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, cache.Set(ctx, "long", []byte("b"), time.Hour))

	// Advance the clock past the short TTL
	now = now.Add(2 * time.Minute)

	_, ok := cache.Get(ctx, "short")
	assert.False(t, ok, "expired entry should miss")
	_, ok = cache.Get(ctx, "long")
	assert.True(t, ok)

	removed, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Delete(ctx, "k"), "deleting twice is fine")

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
}
