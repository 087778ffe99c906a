// Package watch reports changes of a single file made by other programs.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long events must settle before the callback runs.
const Debounce = 200 * time.Millisecond

// Watch observes the directory holding path and calls cb once writes,
// creates, renames or removals of path have settled. It returns when ctx is
// cancelled. cb runs on the watcher goroutine.
func Watch(ctx context.Context, path string, logger *slog.Logger, cb func()) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			// Best-effort watcher close.
			_ = cerr
		}
	}()

	// Editors and Save replace the file, so the directory is watched
	// instead of the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug("watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(Debounce)
			fire = timer.C
		} else {
			timer.Reset(Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			cb()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
