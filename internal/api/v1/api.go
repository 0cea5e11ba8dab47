// Package v1 implements the movie records REST API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vmunix/reelview/internal/library"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
	maxBodyBytes = 1 << 20
)

// Server is the movie records API server.
type Server struct {
	deps ServerDeps
	log  *slog.Logger
}

// NewWithDeps creates an API server from explicit dependencies.
func NewWithDeps(deps ServerDeps, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, log: log.With("component", "api")}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Movies
	mux.HandleFunc("GET /api/movies", s.listMovies)
	mux.HandleFunc("GET /api/movies/{id}", s.getMovie)
	mux.HandleFunc("POST /api/movies", limitBody(s.addMovie))
	mux.HandleFunc("PUT /api/movies/{id}", limitBody(s.updateMovie))
	mux.HandleFunc("DELETE /api/movies/{id}", s.deleteMovie)

	// Events
	mux.HandleFunc("GET /api/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/movies/{id}/events", s.requireEventLog(s.listMovieEvents))

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return i, nil
}

func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return min(limit, maxLimit), offset, nil
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	_, total, err := s.deps.Library.ListMovies(library.Filter{Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Movies: total, Events: s.deps.EventLog != nil})
}
