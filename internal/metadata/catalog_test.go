package metadata

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reelview/internal/catalog"
	"github.com/vmunix/reelview/internal/movie"
)

// fakeSource counts lookups and serves records from a map.
type fakeSource struct {
	mu          sync.Mutex
	records     map[string]movie.Record
	calls       int
	invalidated []string
}

func (f *fakeSource) GetMovie(_ context.Context, id string) (*movie.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	rec, ok := f.records[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeSource) Invalidate(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCatalogService_GetMovie_CachesHits(t *testing.T) {
	src := &fakeSource{records: map[string]movie.Record{
		"heat": {ID: "heat", Title: "Heat", Rating: movie.Float(8.3)},
	}}
	svc := NewCatalogService(src, NewCache(setupTestDB(t)), time.Hour, testLogger())
	ctx := context.Background()

	rec, err := svc.GetMovie(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.Title)
	assert.Equal(t, 1, src.calls)

	rec, err = svc.GetMovie(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.Title)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 8.3, *rec.Rating, 0.0001)
	assert.Equal(t, 1, src.calls, "second lookup should be served from cache")
}

func TestCatalogService_GetMovie_DoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{records: map[string]movie.Record{}}
	svc := NewCatalogService(src, NewCache(setupTestDB(t)), time.Hour, testLogger())
	ctx := context.Background()

	_, err := svc.GetMovie(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.GetMovie(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 2, src.calls)
}

func TestCatalogService_GetMovie_CorruptEntryRefetches(t *testing.T) {
	src := &fakeSource{records: map[string]movie.Record{"heat": {Title: "Heat"}}}
	cache := NewCache(setupTestDB(t))
	svc := NewCatalogService(src, cache, time.Hour, testLogger())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, keyPrefixMovie+"heat", []byte("{not json"), time.Hour))

	rec, err := svc.GetMovie(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.Title)
	assert.Equal(t, 1, src.calls)
}

func TestCatalogService_Invalidate(t *testing.T) {
	src := &fakeSource{records: map[string]movie.Record{"heat": {Title: "Heat"}}}
	svc := NewCatalogService(src, NewCache(setupTestDB(t)), time.Hour, testLogger())
	ctx := context.Background()

	_, err := svc.GetMovie(ctx, "heat")
	require.NoError(t, err)

	svc.Invalidate("heat")
	assert.Equal(t, []string{"heat"}, src.invalidated)

	_, err = svc.GetMovie(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "invalidated entry should be refetched")
}

// blockingSource holds GetMovie until release is closed.
type blockingSource struct {
	fakeSource
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) GetMovie(ctx context.Context, id string) (*movie.Record, error) {
	b.started <- struct{}{}
	<-b.release
	return b.fakeSource.GetMovie(ctx, id)
}

func TestCatalogService_InvalidateDuringFetch(t *testing.T) {
	src := &blockingSource{
		fakeSource: fakeSource{records: map[string]movie.Record{"heat": {ID: "heat", Title: "Old Title"}}},
		started:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	cache := NewCache(setupTestDB(t))
	svc := NewCatalogService(src, cache, time.Hour, testLogger())
	ctx := context.Background()

	done := make(chan *movie.Record, 1)
	go func() {
		rec, err := svc.GetMovie(ctx, "heat")
		assert.NoError(t, err)
		done <- rec
	}()
	<-src.started

	svc.Invalidate("heat")
	close(src.release)
	assert.Equal(t, "Old Title", (<-done).Title)

	_, ok := cache.Get(ctx, keyPrefixMovie+"heat")
	assert.False(t, ok, "record fetched before the invalidation must not be cached")
	assert.Equal(t, []string{"heat"}, src.invalidated)

	// A fetch that starts after the invalidation is cached again.
	src.fakeSource.mu.Lock()
	src.records["heat"] = movie.Record{ID: "heat", Title: "New Title"}
	src.fakeSource.mu.Unlock()
	rec, err := svc.GetMovie(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "New Title", rec.Title)

	_, ok = cache.Get(ctx, keyPrefixMovie+"heat")
	assert.True(t, ok)
}
