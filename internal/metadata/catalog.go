package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/reelview/internal/movie"
)

const defaultRecordTTL = 24 * time.Hour

const keyPrefixMovie = "catalog:movie:"

// Source is the upstream the service reads through to.
type Source interface {
	GetMovie(ctx context.Context, id string) (*movie.Record, error)
	Invalidate(id string)
}

// CatalogService provides cached access to catalog records.
// Only successful lookups are cached; failures always reach the source.
type CatalogService struct {
	source Source
	cache  *Cache
	ttl    time.Duration
	log    *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64 // bumped by Invalidate
}

// NewCatalogService creates a new catalog service. A ttl <= 0 uses 24h.
func NewCatalogService(source Source, cache *Cache, ttl time.Duration, log *slog.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = defaultRecordTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    log,
	}
}

// GetMovie fetches a movie record by id (cached).
func (s *CatalogService) GetMovie(ctx context.Context, id string) (*movie.Record, error) {
	key := keyPrefixMovie + id

	// Check cache first
	if data, ok := s.cache.Get(ctx, key); ok {
		var rec movie.Record
		if err := json.Unmarshal(data, &rec); err == nil && rec.Usable() {
			s.log.Debug("cache hit for movie", "id", id, "title", rec.Title)
			return &rec, nil
		}
		// Unreadable entry: treat as a miss and fetch fresh data
		s.log.Warn("failed to unmarshal cached movie", "id", id)
	}

	s.log.Debug("cache miss for movie, calling catalog", "id", id)

	gen := s.generation(id)
	rec, err := s.source.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie %q: %w", id, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Warn("failed to marshal movie for cache", "id", id, "error", err)
		return rec, nil
	}
	s.store(ctx, id, gen, data)
	return rec, nil
}

func (s *CatalogService) generation(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[id]
}

// store writes data unless id was invalidated while it was being fetched.
func (s *CatalogService) store(ctx context.Context, id string, gen uint64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[id] != gen {
		s.log.Debug("movie changed during fetch, not caching", "id", id)
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), keyPrefixMovie+id, data, s.ttl); err != nil {
		s.log.Warn("failed to cache movie", "id", id, "error", err)
	}
}

// Invalidate removes the cached record for id here and in the source.
func (s *CatalogService) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens == nil {
		s.gens = make(map[string]uint64)
	}
	s.gens[id]++
	s.source.Invalidate(id)
	if err := s.cache.Delete(context.Background(), keyPrefixMovie+id); err != nil {
		s.log.Warn("failed to invalidate cached movie", "id", id, "error", err)
		return
	}
	s.log.Debug("invalidated movie cache", "id", id)
}
