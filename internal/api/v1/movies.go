package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vmunix/reelview/internal/events"
	"github.com/vmunix/reelview/internal/library"
	"github.com/vmunix/reelview/internal/movie"
)

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" {
		s.searchMovies(w, q, limit, offset)
		return
	}

	movies, total, err := s.deps.Library.ListMovies(library.Filter{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listMoviesResponse{
		Items:  make([]movieItem, len(movies)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, m := range movies {
		resp.Items[i] = movieItem{Movie: m}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchMovies(w http.ResponseWriter, q string, limit, offset int) {
	hits, err := s.deps.Library.Search(q, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listMoviesResponse{
		Items:  []movieItem{},
		Total:  len(hits),
		Limit:  limit,
		Offset: offset,
		Query:  q,
	}
	if offset < len(hits) {
		hits = hits[offset:]
		if limit > 0 && len(hits) > limit {
			hits = hits[:limit]
		}
		for _, h := range hits {
			score := h.Score
			resp.Items = append(resp.Items, movieItem{Movie: h.Movie, Score: &score})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// getMovie serves the record the details page loads.
func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Library.GetMovie(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) addMovie(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	m, err := s.deps.Library.AddMovie(rec)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.publish(r, events.NewMovieSaved(m.ID, m.Title, true))
	w.Header().Set("Location", "/api/movies/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMovie(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if rec.ID != "" && rec.ID != id {
		writeError(w, http.StatusBadRequest, "ID_MISMATCH", "body id does not match path")
		return
	}
	rec.ID = id

	m, err := s.deps.Library.UpdateMovie(rec)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.publish(r, events.NewMovieSaved(m.ID, m.Title, false))
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMovie(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Library.DeleteMovie(id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.publish(r, events.NewMovieDeleted(id))
	w.WriteHeader(http.StatusNoContent)
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (*movie.Record, bool) {
	var rec movie.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return nil, false
	}
	return &rec, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
	case errors.Is(err, library.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", "Movie already exists")
	case errors.Is(err, library.ErrInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_MOVIE", err.Error())
	default:
		s.log.Error("library error", "error", err)
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

// publish emits e on the bus when one is configured. Failures are logged;
// the mutation has already been committed, so a client that hung up must
// not stop the event.
func (s *Server) publish(r *http.Request, e events.Event) {
	if s.deps.Bus == nil {
		return
	}
	if err := s.deps.Bus.Publish(context.WithoutCancel(r.Context()), e); err != nil {
		s.log.Warn("publish event failed", "type", e.EventType(), "entity_id", e.EntityID(), "error", err)
	}
}
