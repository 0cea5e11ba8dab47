// Package server runs the daemon's long-lived components under one errgroup.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/reelview/internal/events"
	"github.com/vmunix/reelview/internal/metadata"
)

// Config for the runner.
type Config struct {
	PruneInterval   time.Duration // 0 disables pruning
	EventRetention  time.Duration // 0 keeps events forever
	ShutdownTimeout time.Duration
}

// Invalidator drops cached state for a movie id.
type Invalidator interface {
	Invalidate(id string)
}

// Deps are the components the runner drives. All are optional except Bus.
type Deps struct {
	Bus          *events.Bus
	HTTP         *http.Server
	Listener     net.Listener // serves HTTP on this listener instead of HTTP.Addr
	Cache        *metadata.Cache
	EventLog     *events.EventLog
	Invalidators []Invalidator
}

// Runner manages the HTTP server and background jobs.
type Runner struct {
	deps   Deps
	config Config
	logger *slog.Logger
}

// NewRunner creates a new runner.
func NewRunner(deps Deps, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Runner{
		deps:   deps,
		config: cfg,
		logger: logger,
	}
}

// Run starts all components and blocks until ctx is canceled or one of them
// fails. A clean shutdown returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if r.deps.Bus == nil {
		return errors.New("runner: event bus is required")
	}

	// Subscribe before anything can publish.
	movieEvents := r.deps.Bus.SubscribeMovies(64)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer r.deps.Bus.Unsubscribe(movieEvents)
		return r.invalidate(ctx, movieEvents)
	})

	if r.config.PruneInterval > 0 && (r.deps.Cache != nil || r.deps.EventLog != nil) {
		g.Go(func() error { return r.prune(ctx) })
	}

	if r.deps.HTTP != nil {
		g.Go(func() error { return r.serve(ctx) })
	}

	return g.Wait()
}

func (r *Runner) serve(ctx context.Context) error {
	log := r.logger.With("component", "http")
	errCh := make(chan error, 1)
	go func() {
		var err error
		if r.deps.Listener != nil {
			err = r.deps.HTTP.Serve(r.deps.Listener)
		} else {
			err = r.deps.HTTP.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", r.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
	defer cancel()
	if err := r.deps.HTTP.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// invalidate drops cached records whenever the catalog changes a movie.
func (r *Runner) invalidate(ctx context.Context, ch <-chan events.Event) error {
	log := r.logger.With("component", "invalidator")
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			for _, inv := range r.deps.Invalidators {
				inv.Invalidate(e.EntityID())
			}
			log.Debug("invalidated movie", "id", e.EntityID(), "event", e.EventType())
		}
	}
}

func (r *Runner) prune(ctx context.Context) error {
	log := r.logger.With("component", "pruner")
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	log.Info("pruner started", "interval", r.config.PruneInterval)
	for {
		select {
		case <-ctx.Done():
			log.Info("pruner stopped")
			return nil
		case <-ticker.C:
			r.pruneOnce(ctx, log)
		}
	}
}

func (r *Runner) pruneOnce(ctx context.Context, log *slog.Logger) {
	var entries, old int64
	if r.deps.Cache != nil {
		n, err := r.deps.Cache.Prune(ctx)
		if err != nil {
			log.Error("prune metadata cache failed", "error", err)
		}
		entries = n
	}
	if r.deps.EventLog != nil && r.config.EventRetention > 0 {
		n, err := r.deps.EventLog.Prune(r.config.EventRetention)
		if err != nil {
			log.Error("prune events failed", "error", err)
		}
		old = n
	}
	if entries == 0 && old == 0 {
		return
	}
	log.Info("pruned", "cache_entries", entries, "events", old)
	if err := r.deps.Bus.Publish(ctx, events.NewCachePruned(entries, old)); err != nil {
		log.Debug("publish prune event failed", "error", err)
	}
}
