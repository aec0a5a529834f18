package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven re-index with the new card
// count.
type EventCallback func(cards int)

const debounce = 200 * time.Millisecond

// Watch follows file in dir and re-syncs the index after it changes, until
// ctx is cancelled. The directory is watched rather than the file because
// writes replace the file by rename. Bursts of events are coalesced.
func Watch(ctx context.Context, db CardIndex, src Source, dir, file string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir), slog.String("file", file))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(debounce)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-syncCh:
			changed, err := Sync(db, src, logger)
			if err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			if !changed {
				continue
			}
			n, err := db.Count()
			if err != nil {
				logger.Warn("watcher: count failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: re-indexed", slog.Int("cards", n))
			if cb != nil {
				cb(n)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
