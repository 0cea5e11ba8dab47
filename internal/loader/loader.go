// Package loader drives the movie detail view-model for one page instance.
//
// A Loader holds exactly one movie.ViewState. SetID resets it to Loading and
// starts a single fetch; the fetch settles the state to Loaded or NotFound.
// Changing the id cancels the previous fetch, and every fetch carries a
// sequence number so a late result for a superseded id is dropped.
package loader

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks . Fetcher

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/vmunix/reelview/internal/catalog"
	"github.com/vmunix/reelview/internal/movie"
)

// Fetcher retrieves a movie record by id.
type Fetcher interface {
	GetMovie(ctx context.Context, id string) (*movie.Record, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithContext sets the parent context of every fetch.
func WithContext(ctx context.Context) Option {
	return func(l *Loader) {
		l.parent = ctx
	}
}

// WithChanges enables the transition feed returned by Changes.
func WithChanges(bufferSize int) Option {
	return func(l *Loader) {
		l.changes = make(chan movie.ViewState, bufferSize)
	}
}

// Loader owns the view state for one page.
type Loader struct {
	fetcher Fetcher
	log     *slog.Logger
	parent  context.Context

	mu      sync.Mutex
	id      string
	seq     uint64
	state   movie.ViewState
	cancel  context.CancelFunc
	settled chan struct{} // closed when the current id reaches a terminal state
	changes chan movie.ViewState
	closed  bool
}

// New creates a Loader in the Loading state.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		log:     slog.Default(),
		parent:  context.Background(),
		state:   movie.Loading(),
		settled: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the current identifier.
func (l *Loader) ID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

// State returns a snapshot of the view state.
func (l *Loader) State() movie.ViewState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Changes returns the transition feed, or nil unless WithChanges was given.
// Transitions are dropped when the buffer is full. The channel is closed by Close.
func (l *Loader) Changes() <-chan movie.ViewState {
	return l.changes
}

// SetID switches the loader to id. The state resets to Loading and, if id is
// non-empty, one fetch is started. Setting the current id again is a no-op.
func (l *Loader) SetID(id string) {
	id = strings.TrimSpace(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || (id == l.id && l.seq > 0) {
		return
	}

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	l.seq++
	l.id = id
	if l.state.Phase().Terminal() {
		l.settled = make(chan struct{})
	}
	l.transition(movie.Loading())

	if id == "" {
		return
	}

	ctx, cancel := context.WithCancel(l.parent)
	l.cancel = cancel
	go l.fetch(ctx, l.seq, id)
}

func (l *Loader) fetch(ctx context.Context, seq uint64, id string) {
	rec, err := l.fetcher.GetMovie(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.seq || l.closed {
		l.log.Debug("dropping superseded fetch", "id", id, "current_id", l.id)
		return
	}
	l.cancel = nil

	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			l.log.Debug("fetch canceled", "id", id)
		} else {
			l.log.Warn("movie fetch failed", "id", id, "kind", catalog.Kind(err), "error", err)
		}
		l.transition(movie.NotFound())
	case !rec.Usable():
		l.log.Warn("movie fetch returned no usable record", "id", id, "kind", "record_absent")
		l.transition(movie.NotFound())
	default:
		l.log.Debug("movie loaded", "id", id, "title", rec.Title)
		l.transition(movie.Loaded(*rec))
	}
	close(l.settled)
}

// transition sets the state and publishes it. Callers hold l.mu.
func (l *Loader) transition(s movie.ViewState) {
	l.state = s
	if l.changes == nil {
		return
	}
	select {
	case l.changes <- s:
	default:
		l.log.Warn("view state feed full, dropping transition", "phase", s.Phase().String())
	}
}

// Wait blocks until the current id reaches NotFound or Loaded, or ctx ends.
// On ctx expiry it returns the state at that moment along with ctx.Err().
func (l *Loader) Wait(ctx context.Context) (movie.ViewState, error) {
	l.mu.Lock()
	settled := l.settled
	l.mu.Unlock()

	select {
	case <-settled:
		return l.State(), nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}

// Close cancels any in-flight fetch. The state is kept; further SetID calls are ignored.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.changes != nil {
		close(l.changes)
	}
}
