package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and sends each successfully
// parsed config on the returned channel. Bad edits are logged and skipped.
// The directory is watched rather than the file so editors that replace
// the file on save are still seen. The channel closes when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan *Config, error) {
	if path == "" {
		path = Path()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	out := make(chan *Config, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		debounce := time.NewTimer(0)
		<-debounce.C
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = true
				debounce.Reset(watchDebounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "err", err)
			case <-debounce.C:
				if !pending {
					continue
				}
				pending = false
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload failed", "path", path, "err", err)
					continue
				}
				logger.Info("config reloaded", "path", path)
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
