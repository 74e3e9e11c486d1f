// Package watch reports changes to the two shared files.
//
// It is a thin layer over fsnotify: the shared directory is watched flat and
// only Write/Create events whose base name is text.txt or img.png get through.
// Self-caused writes are not filtered, and an editor or sync client that
// produces two notifications per save will show up twice.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"go.klb.dev/clipshare/internal/shared"
)

// ErrClosed is returned by Run when the underlying watcher shuts down before
// the context is done.
var ErrClosed = errors.New("file watcher closed")

// Event is one raw change notification for a shared file.
type Event struct {
	File shared.File
	Op   fsnotify.Op
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.File, e.Op)
}

// Watcher watches one shared directory.
type Watcher struct {
	dir string
	w   *fsnotify.Watcher
}

// New starts watching dir.
func New(dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, w: w}, nil
}

// Filter maps a raw fsnotify event to a shared-file Event.
func Filter(ev fsnotify.Event) (Event, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return Event{}, false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return Event{}, false
	}
	f, ok := shared.Lookup(base)
	if !ok {
		return Event{}, false
	}
	return Event{File: f, Op: ev.Op}, true
}

// Run delivers events to fn until ctx is done or the watcher is closed, in
// which case it returns ErrClosed. fn runs on the watcher goroutine, in
// arrival order.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context, Event)) error {
	slog.Info("file monitor started", "dir", w.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return ErrClosed
			}
			if e, ok := Filter(ev); ok {
				fn(ctx, e)
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return ErrClosed
			}
			slog.Warn("file watcher error", "err", err)
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error { return w.w.Close() }
