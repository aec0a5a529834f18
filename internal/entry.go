// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wordvault/internal/api"
	"github.com/starford/wordvault/internal/backup"
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/index"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/sse"
	"github.com/starford/wordvault/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker. It also opens capture windows by telling connected
	// extension clients to do so.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	opener := app.opener
	if opener == nil {
		opener = broker
	}

	c, err := Bootstrap(WithConfig(cfg), WithLogger(logger), WithOpener(opener))
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("close components", slog.String("error", err.Error()))
		}
	}()

	c.Cards.Observe(func(kind string, card *models.WordCard) {
		switch kind {
		case cardstore.EventSaved:
			broker.PublishVaultEvent(sse.KindSaved, card)
		case cardstore.EventCleared:
			broker.PublishVaultEvent(sse.KindCleared, nil)
		}
		if _, err := c.Service.Reindex(); err != nil {
			logger.Warn("reindex after change failed", slog.String("error", err.Error()))
		}
	})

	apiRouter := api.NewRouter(c.Service, c.Trigger, c.Forms, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := c.Index.Count(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// SIGINT/SIGTERM cancel every goroutine below, not just the HTTP server.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(sigCtx)

	// Request contexts end with the group so open event streams let
	// Shutdown finish.
	httpServer.BaseContext = func(net.Listener) context.Context { return gCtx }

	// Follow words.json so writes from other processes re-sync the index.
	if cfg.Storage.Driver == StorageFS {
		g.Go(func() error {
			err := index.Watch(gCtx, c.Index, c.Gateway, cfg.Storage.Path, storage.KeyFile(storage.KeyWords), logger,
				func(cards int) {
					broker.PublishVaultEvent(sse.KindReindexed, map[string]int{"cards": cards})
				})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if cfg.Backup.Enabled {
		scheduler := backup.New(c.Service, cfg.Backup.Dir, cfg.Backup.Interval, logger)
		g.Go(func() error {
			return scheduler.Run(gCtx)
		})
	}

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
		<-gCtx.Done()
		if ctx.Err() == nil && sigCtx.Err() != nil {
			logger.Info("Received shutdown signal")
		} else {
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
