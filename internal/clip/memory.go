package clip

import (
	"sync"

	"go.klb.dev/clipshare/internal/payload"
)

// Memory is an in-process clipboard. Set simulates a user copy; Write is the
// path the sync engine uses. Both signal Watch.
type Memory struct {
	mu      sync.Mutex
	cur     payload.Payload
	writes  []payload.Payload
	readErr error
	onWrite func(payload.Payload)
	watchCh chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() (payload.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return payload.None, m.readErr
	}
	return m.cur, nil
}

// Write stores p, records it and runs the write hook before returning, the
// way an OS delivers its change notification while the writer still blocks.
func (m *Memory) Write(p payload.Payload) error {
	m.mu.Lock()
	m.cur = p
	m.writes = append(m.writes, p)
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	notify(m.watchCh)
	return nil
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}

// Set replaces the content as an external copy would.
func (m *Memory) Set(p payload.Payload) {
	m.mu.Lock()
	m.cur = p
	m.mu.Unlock()
	notify(m.watchCh)
}

// Writes returns every payload passed to Write, oldest first.
func (m *Memory) Writes() []payload.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payload.Payload(nil), m.writes...)
}

// SetReadError makes subsequent reads fail with err (nil clears it).
func (m *Memory) SetReadError(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// OnWrite installs a hook called synchronously inside Write.
func (m *Memory) OnWrite(fn func(payload.Payload)) {
	m.mu.Lock()
	m.onWrite = fn
	m.mu.Unlock()
}
