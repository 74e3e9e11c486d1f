//go:build linux

package clip

import (
	"bytes"
	"log/slog"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/clipshare/internal/payload"
)

const linuxPollInterval = 250 * time.Millisecond

type linuxBackend struct {
	watchCh  chan struct{}
	done     chan struct{}
	lastText []byte
	lastImg  []byte
}

// New returns the Linux clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a headless server without X11
// or Wayland).
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless()
	}
	b := &linuxBackend{
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		lastText: clipboard.Read(clipboard.FmtText),
		lastImg:  clipboard.Read(clipboard.FmtImage),
	}
	go b.poll()
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (poll)" }

// poll compares content snapshots; X11 and Wayland offer no portable change
// notification.
func (b *linuxBackend) poll() {
	t := time.NewTicker(linuxPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)
			if !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg) {
				b.lastText = text
				b.lastImg = img
				notify(b.watchCh)
			}
		}
	}
}

func (b *linuxBackend) Read() (payload.Payload, error) { return readSystem() }
func (b *linuxBackend) Write(p payload.Payload) error  { return writeSystem(p) }
func (b *linuxBackend) Watch() <-chan struct{}         { return b.watchCh }
func (b *linuxBackend) Close()                         { close(b.done) }
