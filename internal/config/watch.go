package config

import (
	"context"
	"fmt"
	log "log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// Watch calls fn with the reloaded config whenever path changes, until ctx
// is done. The directory is watched so editors that replace the file are
// noticed. Configs that fail to load are logged and skipped.
func Watch(ctx context.Context, path string, logger *log.Logger, fn func(Config)) error {
	if logger == nil {
		logger = log.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", "err", err)

		case <-timer.C:
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("Failed to reload config", "path", abs, "err", err)
				continue
			}
			logger.Info("Config reloaded", "path", abs)
			fn(cfg)
		}
	}
}
