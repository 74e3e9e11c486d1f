//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipshare_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"log/slog"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/clipshare/internal/payload"
)

const darwinPollInterval = 100 * time.Millisecond

type darwinBackend struct {
	lastChange C.NSInteger
	watchCh    chan struct{}
	done       chan struct{}
}

// New returns the macOS clipboard backend.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless()
	}
	b := &darwinBackend{
		lastChange: C.clipshare_changeCount(),
		watchCh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

// poll watches NSPasteboard.changeCount, which increments on every write.
func (b *darwinBackend) poll() {
	t := time.NewTicker(darwinPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if cc := C.clipshare_changeCount(); cc != b.lastChange {
				b.lastChange = cc
				notify(b.watchCh)
			}
		}
	}
}

func (b *darwinBackend) Read() (payload.Payload, error) { return readSystem() }
func (b *darwinBackend) Write(p payload.Payload) error  { return writeSystem(p) }
func (b *darwinBackend) Watch() <-chan struct{}         { return b.watchCh }
func (b *darwinBackend) Close()                         { close(b.done) }
