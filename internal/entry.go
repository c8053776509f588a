// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/sopgate/internal/api"
	"github.com/starford/sopgate/internal/index"
	"github.com/starford/sopgate/internal/mcpserver"
	"github.com/starford/sopgate/internal/noteservice"
	"github.com/starford/sopgate/internal/pathguard"
	"github.com/starford/sopgate/internal/sse"
	"github.com/starford/sopgate/internal/storage"
)

const (
	citationsThrottle = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// services holds the components shared by the HTTP and MCP entry points.
type services struct {
	store *storage.FS
	db    *index.DB
	svc   *noteservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open prepares the vault, index and note service, then brings the index
// up to date. The caller must close db.
func (a *application) open(logger *slog.Logger, notifier noteservice.Notifier) (*services, error) {
	cfg := a.config

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	guard, err := pathguard.New(store.Root(), cfg.Vault.Allowlist)
	if err != nil {
		return nil, fmt.Errorf("init path guard: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &services{
		store: store,
		db:    db,
		svc:   noteservice.NewService(store, db, guard, notifier, logger),
	}, nil
}

// Run starts the HTTP companion service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.installLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Any("allowlist", cfg.Vault.Allowlist),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))
	if !cfg.Auth.Configured() {
		logger.Warn("auth token not set; protected routes will answer 500")
	}

	broker := sse.NewBroker(citationsThrottle)
	defer broker.Close()

	rt, err := app.open(logger, broker)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	router := api.NewRouter(rt.svc, api.RouterConfig{
		Token:        cfg.Auth.Token,
		MaxBodyBytes: cfg.App.HTTP.MaxBodyBytes,
		Navigator:    cfg.Viewer.Navigator(),
		Events:       broker,
	},
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), logger, broker.PublishNoteEvent)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams only end when the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops once the server is down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr unless
// WithLogOutput says otherwise, since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.installLogger()

	rt, err := app.open(logger, nil)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), logger, nil)
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(rt.svc, app.config.Viewer.Navigator()).ServeStdio()
	})

	return g.Wait()
}
