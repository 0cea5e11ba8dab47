package v1

import "github.com/vmunix/reelview/internal/library"

// movieItem is one entry of a movie list; Score is set for ranked searches.
type movieItem struct {
	*library.Movie
	Score *float64 `json:"score,omitempty"`
}

// listMoviesResponse is the response for GET /api/movies.
type listMoviesResponse struct {
	Items  []movieItem `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Query  string      `json:"query,omitempty"`
}

// EventResponse is the API representation of a logged event.
type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"type"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	OccurredAt string `json:"occurred_at"`
}

type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

type statusResponse struct {
	Status string `json:"status"`
	Movies int    `json:"movies"`
	Events bool   `json:"events"`
}
