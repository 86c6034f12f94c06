package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// reloadDelay lets editors finish writing before the file is reread.
const reloadDelay = 50 * time.Millisecond

// Watch reloads the configuration file whenever it changes and hands every valid
// result to onChange. Invalid reloads are logged and ignored. The parent directory
// is watched so editors that save by renaming keep triggering reloads.
// Watching stops when ctx is cancelled.
//
// Parameters:
//   - ctx: controls the lifetime of the watcher
//   - path: the configuration file
//   - onChange: called from the watcher goroutine with each valid reload
//
// Returns:
//   - error: error if the watcher cannot be started
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	log := logger.WithComponent("config").WithField("path", target)

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				pending = time.After(reloadDelay)
			case <-pending:
				pending = nil
				cfg, err := Load(target)
				if err != nil {
					log.WithError(err).Warn("ignoring config reload")
					continue
				}
				log.Info("config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithFields(logrus.Fields{"error": err}).Warn("config watcher error")
			}
		}
	}()

	return nil
}
