// Package backup periodically writes a Markdown export of the vault to disk.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/storage"
	"github.com/starford/wordvault/internal/vault"
)

// Exporter produces the Markdown export.
type Exporter interface {
	ExportMarkdown(ctx context.Context) (vault.Export, error)
}

// Scheduler writes exports into dir every interval.
type Scheduler struct {
	exporter Exporter
	dir      string
	interval time.Duration
	logger   *slog.Logger

	cron *gocron.Scheduler
}

// New creates a backup scheduler.
func New(exporter Exporter, dir string, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		exporter: exporter,
		dir:      dir,
		interval: interval,
		logger:   logger,
		cron:     gocron.NewScheduler(time.UTC),
	}
}

// RunOnce writes one export and returns its path. An empty vault is
// skipped and returns "".
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	exp, err := s.exporter.ExportMarkdown(ctx)
	if errors.Is(err, apperr.ErrEmptyVault) {
		s.logger.Debug("backup: vault empty, skipping")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("backup: export: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	path := filepath.Join(s.dir, exp.Filename)
	if err := storage.WriteFileAtomic(path, exp.Data); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	s.logger.Info("backup: export written", slog.String("path", path))
	return path, nil
}

// Run schedules RunOnce every interval and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.Every(s.interval).SingletonMode().Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("backup: run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("backup: schedule: %w", err)
	}
	s.cron.StartAsync()
	s.logger.Info("backup: scheduled",
		slog.String("dir", s.dir),
		slog.String("interval", s.interval.String()))

	<-ctx.Done()
	s.cron.Stop()
	return nil
}
