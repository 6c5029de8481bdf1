package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oszuidwest/waytooloud/internal/util"
)

// Watch reloads the configuration whenever the config file or the limits
// file changes on disk, and blocks until ctx is cancelled. Bursts of events
// within debounce collapse into a single reload. onReload receives the result
// of every reload attempt; on error the previous values stay in effect.
func (c *Config) Watch(ctx context.Context, debounce time.Duration, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return util.WrapError("create file watcher", err)
	}
	defer util.SafeCloseFunc(w, "config watcher")()

	// Editors often replace files instead of writing them in place, so the
	// parent directories are watched and events are filtered by name.
	watched := make(map[string]bool)
	watchDirs := func() {
		for _, p := range []string{c.FilePath(), c.LimitsPath()} {
			dir := filepath.Dir(p)
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				slog.Warn("cannot watch directory", "dir", dir, "error", err)
				continue
			}
			watched[dir] = true
		}
	}
	watchDirs()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
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
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Clean(ev.Name)
			if name != filepath.Clean(c.FilePath()) && name != filepath.Clean(c.LimitsPath()) {
				continue
			}
			slog.Debug("configuration file changed", "path", name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			err := c.Reload()
			if err != nil {
				slog.Warn("configuration reload failed, keeping previous values", "error", err)
			} else {
				slog.Info("configuration reloaded", "limits", len(c.ConfiguredLimits()))
				// limits.path may have moved to another directory.
				watchDirs()
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}
