package clip

import (
	"context"
	"log/slog"

	"go.klb.dev/clipshare/internal/payload"
)

// Monitor turns a backend's change signals into callbacks. It does not tell
// self-caused changes apart from external ones.
type Monitor struct {
	b Backend
}

// NewMonitor returns a Monitor over b.
func NewMonitor(b Backend) *Monitor {
	return &Monitor{b: b}
}

// Current answers "what is on the clipboard now".
func (m *Monitor) Current() (payload.Payload, error) {
	return m.b.Read()
}

// Run calls fn once per change signal until ctx is done. fn runs on the
// monitor goroutine; the next signal is not consumed until it returns.
func (m *Monitor) Run(ctx context.Context, fn func(context.Context)) error {
	slog.Info("clipboard monitor started", "backend", m.b.Name())
	watch := m.b.Watch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watch:
			fn(ctx)
		}
	}
}
