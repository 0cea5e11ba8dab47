// Package web serves the movie details page.
package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vmunix/reelview/internal/loader"
	"github.com/vmunix/reelview/internal/movie"
	"github.com/vmunix/reelview/internal/render"
)

// DefaultPendingWait is how long a page request waits for its record.
const DefaultPendingWait = 1500 * time.Millisecond

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler renders GET /movie/{id}.
//
// Each request drives its own loader. If the record has not arrived after
// PendingWait the loading page is served with a refresh hint; the fetch
// result still lands in the fetcher's cache for the next request.
type Handler struct {
	fetcher     loader.Fetcher
	renderer    *render.Renderer
	pendingWait time.Duration
	health      Pinger
	log         *slog.Logger
}

// Config holds page handler settings.
type Config struct {
	PendingWait time.Duration
	Render      render.Options
	Health      Pinger // optional, checked by /healthz
}

// NewHandler creates a page handler.
func NewHandler(fetcher loader.Fetcher, cfg Config, log *slog.Logger) (*Handler, error) {
	r, err := render.New(cfg.Render)
	if err != nil {
		return nil, err
	}
	if cfg.PendingWait <= 0 {
		cfg.PendingWait = DefaultPendingWait
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		fetcher:     fetcher,
		renderer:    r,
		pendingWait: cfg.PendingWait,
		health:      cfg.Health,
		log:         log.With("component", "web"),
	}, nil
}

// RegisterRoutes registers page routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /movie/{id}", h.moviePage)
	mux.HandleFunc("GET /healthz", h.healthz)
}

func (h *Handler) moviePage(w http.ResponseWriter, r *http.Request) {
	state := h.load(r.Context(), r.PathValue("id"))

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, state); err != nil {
		h.log.Error("render failed", "phase", state.Phase(), "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	status := http.StatusOK
	switch state.Phase() {
	case movie.PhaseLoading:
		w.Header().Set("Cache-Control", "no-store")
	case movie.PhaseNotFound:
		w.Header().Set("Cache-Control", "no-store")
		status = http.StatusNotFound
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// load runs a loader for id and returns its state once settled or after
// the pending wait, whichever comes first.
func (h *Handler) load(ctx context.Context, id string) movie.ViewState {
	l := loader.New(h.fetcher,
		loader.WithContext(ctx),
		loader.WithLogger(h.log.With("movie_id", id, "request_id", RequestID(ctx))),
	)
	defer l.Close()
	l.SetID(id)

	waitCtx, cancel := context.WithTimeout(ctx, h.pendingWait)
	defer cancel()

	state, err := l.Wait(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		h.log.Debug("record still pending", "movie_id", id, "wait", h.pendingWait)
	}
	return state
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
