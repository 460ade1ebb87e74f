package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/logging"
)

// WatchDebounce is how long Watch waits for writes to settle before reloading
const WatchDebounce = 250 * time.Millisecond

// Watch calls fn with the freshly loaded config each time the file at path
// changes. Files that fail to load are logged and skipped, and a file that
// was removed or renamed away keeps the current settings. Watch blocks
// until ctx is cancelled.
//
// The parent directory is watched so that atomic replace (write tmp, rename)
// is seen as a change.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	path, err := ResolvePath(path)
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	logging.Info("Watching config file", zap.String("path", path))

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
			} else {
				timer.Reset(WatchDebounce)
			}
			trigger = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Config watcher error", zap.Error(err))

		case <-trigger:
			trigger = nil
			data, err := os.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				logging.Warn("Config file removed, keeping current settings", zap.String("path", path))
				continue
			}
			if err != nil {
				logging.Warn("Failed to read changed config", zap.String("path", path), zap.Error(err))
				continue
			}
			cfg, err := Parse(data)
			if err != nil {
				logging.Warn("Ignoring invalid config change", zap.String("path", path), zap.Error(err))
				continue
			}
			logging.Info("Config file changed", zap.String("path", path))
			fn(cfg)
		}
	}
}
