package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it is written or replaced and delivers the new
// parameters on the returned channel. Only the most recent value is kept if
// the reader falls behind. Files that fail to parse are logged and skipped.
// The channel is closed when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan RenderParams, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("params watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory instead.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("params watcher: %w", err)
	}

	out := make(chan RenderParams, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				p, err := Load(abs)
				if err != nil {
					logger.Warn("params reload failed", "path", abs, "err", err)
					continue
				}
				logger.Info("params reloaded", "path", abs)
				offerLatest(out, p)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("params watcher", "err", err)
			}
		}
	}()
	return out, nil
}

// offerLatest replaces any unread value in ch with p. ch must have capacity 1
// and a single sender.
func offerLatest[T any](ch chan T, p T) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- p
}
