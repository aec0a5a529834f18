package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/wordvault/internal/capture"
	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/dictionary"
	"github.com/starford/wordvault/internal/form"
	"github.com/starford/wordvault/internal/handoff"
	"github.com/starford/wordvault/internal/index"
	"github.com/starford/wordvault/internal/remote"
	"github.com/starford/wordvault/internal/storage"
	"github.com/starford/wordvault/internal/vault"
	"github.com/starford/wordvault/internal/wordservice"
)

// Components is the wired object graph shared by the server, the CLI
// commands and the MCP server.
type Components struct {
	Config  *Config
	Logger  *slog.Logger
	Gateway *storage.Gateway
	Index   *index.DB
	Cards   *cardstore.Store
	Viewer  *vault.Viewer
	Relay   *handoff.Relay
	Trigger *capture.Trigger
	Forms   *form.Registry
	Service *wordservice.Service
}

// Bootstrap opens the store and the search index and wires every
// component. Callers must Close the result.
func Bootstrap(opts ...Option) (*Components, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	}
	opener := app.opener
	if opener == nil {
		opener = handoff.LogOpener{Logger: logger}
	}

	provider, err := openProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	gw := storage.NewGateway(provider)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	definer := dictionary.NewClient(
		dictionary.WithBaseURL(cfg.Dictionary.BaseURL),
		dictionary.WithTimeout(cfg.Dictionary.Timeout),
		dictionary.WithInterval(cfg.Dictionary.Interval),
	)

	cards := cardstore.New(gw, remote.NewHTTP(cfg.Remote.Timeout), logger)
	viewer := vault.New(cards, logger)
	relay := handoff.NewRelay(gw, opener, cfg.Window.Window())
	svc := wordservice.New(cards, viewer, db, gw, definer, logger)

	c := &Components{
		Config:  cfg,
		Logger:  logger,
		Gateway: gw,
		Index:   db,
		Cards:   cards,
		Viewer:  viewer,
		Relay:   relay,
		Trigger: capture.NewTrigger(relay, logger),
		Forms: form.NewRegistry(form.Deps{
			Handoff: relay,
			Definer: definer,
			Saver:   cards,
			Options: form.Options{
				RequireNote: cfg.Form.RequireNote,
				CloseOnSave: cfg.Form.CloseOnSave,
				IdleTimeout: cfg.Form.IdleTimeout,
			},
			Logger: logger,
		}),
		Service: svc,
	}

	// Run initial sync.
	if _, err := svc.Reindex(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return c, nil
}

// Close releases the store and the index.
func (c *Components) Close() error {
	return errors.Join(c.Index.Close(), c.Gateway.Close())
}

// Capture runs the keyboard-shortcut capture path for a selection taken
// outside the browser.
func (c *Components) Capture(ctx context.Context, selection, pageURL string) (handoff.Window, bool, error) {
	return c.Trigger.OnCommand(ctx, capture.StaticSelection{Text: selection, PageURL: pageURL})
}

func openProvider(cfg *StorageConfig) (storage.Provider, error) {
	switch cfg.Driver {
	case StorageSQLite, StoragePostgres:
		p, err := storage.NewSQL(cfg.SQLDriver(), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		return p, nil
	default:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		p, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		return p, nil
	}
}
