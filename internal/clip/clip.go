// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    Linux via golang.design/x/clipboard, polling only
//	clip_other.go    headless stub for everything else
//
// Only plain text and PNG images are mirrored. Everything else on the
// clipboard reads as payload.None.
package clip

import (
	"errors"

	"go.klb.dev/clipshare/internal/payload"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("clipboard backend closed")

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard content. Text is preferred over an
	// image when both are present. Returns payload.None, nil when the
	// clipboard holds no supported format.
	Read() (payload.Payload, error)

	// Write replaces the clipboard content with p.
	Write(p payload.Payload) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes, including changes made through Write. The channel is never
	// closed. Signals coalesce: a pending signal absorbs further changes.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// notify performs a coalescing non-blocking send on a watch channel.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
