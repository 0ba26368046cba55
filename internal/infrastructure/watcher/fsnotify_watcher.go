package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"TalkIdeas/internal/staging"
)

// EventHandler receives translated events; staging.Machine implements it.
type EventHandler interface {
	Handle(ctx context.Context, ev staging.Event) staging.Outcome
}

// Watcher observes one directory (non-recursive) and forwards events sequentially.
type Watcher struct {
	dir     string
	handler EventHandler
	logger  *slog.Logger
	ready   chan struct{}
}

// New validates the directory; an inaccessible directory is a startup error.
func New(dir string, handler EventHandler, logger *slog.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watched dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watched dir %s is not a directory", dir)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{dir: dir, handler: handler, logger: logger, ready: make(chan struct{})}, nil
}

// Ready is closed once the directory is registered with the OS watcher.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run blocks until ctx is cancelled or the OS watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	close(w.ready)
	w.logger.Info("watching folder", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping file monitor")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			ev, ok := translate(event)
			if !ok {
				continue
			}
			w.logger.Debug("file event", "op", ev.Op.String(), "path", ev.Path)
			w.handler.Handle(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// translate maps fsnotify ops onto staging ops. A rename into the directory
// arrives as Create; Rename is only reported for the old name.
func translate(event fsnotify.Event) (staging.Event, bool) {
	var op staging.Op
	switch {
	case event.Has(fsnotify.Create):
		op = staging.OpCreate
	case event.Has(fsnotify.Write):
		op = staging.OpWrite
	case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
		op = staging.OpRemove
	case event.Has(fsnotify.Chmod):
		op = staging.OpChmod
	default:
		return staging.Event{}, false
	}

	ev := staging.Event{Op: op, Path: event.Name}
	if op == staging.OpCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			ev.IsDir = true
		}
	}
	return ev, true
}
