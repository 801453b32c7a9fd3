package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of write events from a single save.
var watchDebounce = 100 * time.Millisecond

// Watch eagerly refreshes store whenever its backing file is written or
// replaced, so the next query finds a warm snapshot. The lazy check in every
// query stays authoritative; a missed event only costs latency.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, store *Store, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors and deploy tools often replace the file by rename.
	target := filepath.Clean(store.Path())
	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("watching data source", slog.String("path", target))

	fire := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(watchDebounce)
			}

		case <-fire:
			if err := store.EnsureFresh(ctx); err != nil {
				logger.Warn("eager reload failed", slog.String("path", target), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("eager reload complete", slog.String("snapshot_id", store.Stats().SnapshotID))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}
