package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/reelview/internal/api/v1"
	"github.com/vmunix/reelview/internal/catalog"
	"github.com/vmunix/reelview/internal/config"
	"github.com/vmunix/reelview/internal/events"
	"github.com/vmunix/reelview/internal/library"
	"github.com/vmunix/reelview/internal/loader"
	"github.com/vmunix/reelview/internal/metadata"
	"github.com/vmunix/reelview/internal/migrations"
	"github.com/vmunix/reelview/internal/movie"
	"github.com/vmunix/reelview/internal/render"
	"github.com/vmunix/reelview/internal/server"
	"github.com/vmunix/reelview/internal/web"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openDB opens the SQLite database at path and applies migrations.
func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single writer keeps SQLite free of SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// seedLibrary imports a JSON array of movie records.
func seedLibrary(store *library.Store, path string, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var records []movie.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	res, err := store.ImportMovies(records)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("seeded library", "path", path, "added", res.Added, "updated", res.Updated)
	return nil
}

// app is the wired daemon, built separately from run so tests can drive it.
type app struct {
	cfg          *config.Config
	db           *sql.DB
	bus          *events.Bus
	library      *library.Store
	cache        *metadata.Cache
	eventLog     *events.EventLog
	invalidators []server.Invalidator
	handler      http.Handler
	logger       *slog.Logger
}

func newApp(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*app, error) {
	// === Stores ===
	libraryStore := library.NewStore(db)
	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))

	// === Catalog ===
	client := catalog.NewClient(cfg.CatalogURL(),
		catalog.WithTimeout(cfg.Catalog.Timeout.Duration),
		catalog.WithCacheTTL(cfg.Catalog.CacheTTL.Duration),
	)
	invalidators := []server.Invalidator{client}
	var fetcher loader.Fetcher = client

	var cache *metadata.Cache
	if cfg.Cache.Enabled {
		cache = metadata.NewCache(db)
		svc := metadata.NewCatalogService(client, cache, cfg.Cache.TTL.Duration, logger.With("component", "metadata"))
		fetcher = svc
		invalidators = []server.Invalidator{svc}
	}

	// === HTTP ===
	mux := http.NewServeMux()

	pages, err := web.NewHandler(fetcher, web.Config{
		PendingWait: cfg.Page.PendingWait.Duration,
		Render: render.Options{
			EmbedHost:      cfg.Embed.Host,
			Placeholder:    cfg.Page.Placeholder,
			RefreshSeconds: cfg.Page.RefreshSeconds,
		},
		Health: db,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("page handler: %w", err)
	}
	pages.RegisterRoutes(mux)

	if cfg.API.Enabled {
		api, err := v1.NewWithDeps(v1.ServerDeps{
			Library:  libraryStore,
			Bus:      bus,
			EventLog: eventLog,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		api.RegisterRoutes(mux)
	}

	handler := web.Middleware(mux, logger.With("component", "http"))

	return &app{
		cfg:          cfg,
		db:           db,
		bus:          bus,
		library:      libraryStore,
		cache:        cache,
		eventLog:     eventLog,
		invalidators: invalidators,
		handler:      handler,
		logger:       logger,
	}, nil
}

// run serves HTTP and background jobs until ctx is canceled. A nil listener
// listens on the configured address.
func (a *app) run(ctx context.Context, ln net.Listener) error {
	runner := server.NewRunner(server.Deps{
		Bus: a.bus,
		HTTP: &http.Server{
			Addr:              a.cfg.Addr(),
			Handler:           a.handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Listener:     ln,
		Cache:        a.cache,
		EventLog:     a.eventLog,
		Invalidators: a.invalidators,
	}, server.Config{
		PruneInterval:  a.cfg.Cache.PruneInterval.Duration,
		EventRetention: a.cfg.Cache.EventRetention.Duration,
	}, a.logger)
	return runner.Run(ctx)
}

func runServer(configPath, seedPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	a, err := newApp(cfg, db, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.bus.Close() }()

	if seedPath != "" {
		if err := seedLibrary(a.library, seedPath, logger); err != nil {
			return err
		}
	}

	logger.Info("server starting",
		"addr", cfg.Addr(),
		"database", cfg.Database.Path,
		"catalog", cfg.CatalogURL(),
		"api", cfg.API.Enabled,
		"cache", cfg.Cache.Enabled,
		"log_level", cfg.Server.LogLevel,
		"config", configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, nil); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
