package events

// Event types.
const (
	EventMovieSaved   = "movie.saved"
	EventMovieDeleted = "movie.deleted"
	EventCachePruned  = "cache.pruned"
)

// MovieSaved is emitted after a catalog record is created or replaced.
type MovieSaved struct {
	BaseEvent
	Title   string `json:"title"`
	Created bool   `json:"created"`
}

// NewMovieSaved builds a MovieSaved event for id.
func NewMovieSaved(id, title string, created bool) *MovieSaved {
	return &MovieSaved{
		BaseEvent: NewBaseEvent(EventMovieSaved, EntityMovie, id),
		Title:     title,
		Created:   created,
	}
}

// MovieDeleted is emitted after a catalog record is removed.
type MovieDeleted struct {
	BaseEvent
}

// NewMovieDeleted builds a MovieDeleted event for id.
func NewMovieDeleted(id string) *MovieDeleted {
	return &MovieDeleted{BaseEvent: NewBaseEvent(EventMovieDeleted, EntityMovie, id)}
}

// CachePruned reports a maintenance sweep.
type CachePruned struct {
	BaseEvent
	CacheEntries int64 `json:"cache_entries"`
	Events       int64 `json:"events"`
}

// NewCachePruned builds a CachePruned event.
func NewCachePruned(cacheEntries, events int64) *CachePruned {
	return &CachePruned{
		BaseEvent:    NewBaseEvent(EventCachePruned, EntityCache, "metadata"),
		CacheEntries: cacheEntries,
		Events:       events,
	}
}
