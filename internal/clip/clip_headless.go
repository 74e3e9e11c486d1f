package clip

import "go.klb.dev/clipshare/internal/payload"

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// It never produces Watch events and silently discards writes.
type headlessBackend struct {
	watchCh chan struct{}
}

// NewHeadless returns the no-op backend.
func NewHeadless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string                   { return "headless (no-op)" }
func (b *headlessBackend) Read() (payload.Payload, error) { return payload.None, nil }
func (b *headlessBackend) Write(_ payload.Payload) error  { return nil }
func (b *headlessBackend) Watch() <-chan struct{}         { return b.watchCh }
func (b *headlessBackend) Close()                         {}
