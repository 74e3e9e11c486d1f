package clip

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipshare/internal/payload"
)

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory()
	p, err := m.Read()
	require.NoError(t, err)
	assert.True(t, p.IsNone())

	require.NoError(t, m.Write(payload.Text("hello")))
	p, err = m.Read()
	require.NoError(t, err)
	assert.Equal(t, "hello", p.String())
	assert.Len(t, m.Writes(), 1)

	select {
	case <-m.Watch():
	default:
		t.Fatal("write must signal watch")
	}
}

func TestMemorySetDoesNotRecordWrite(t *testing.T) {
	m := NewMemory()
	m.Set(payload.Text("copied"))
	assert.Empty(t, m.Writes())
	<-m.Watch()
}

func TestMemoryReadError(t *testing.T) {
	m := NewMemory()
	locked := errors.New("clipboard locked")
	m.SetReadError(locked)
	_, err := m.Read()
	assert.ErrorIs(t, err, locked)
	m.SetReadError(nil)
	_, err = m.Read()
	assert.NoError(t, err)
}

func TestMemoryWriteHookRunsBeforeReturn(t *testing.T) {
	m := NewMemory()
	var seen payload.Payload
	m.OnWrite(func(p payload.Payload) {
		// Read must not deadlock from inside the hook.
		cur, err := m.Read()
		require.NoError(t, err)
		seen = cur
	})
	require.NoError(t, m.Write(payload.Text("x")))
	assert.Equal(t, "x", seen.String())
}

func TestHeadless(t *testing.T) {
	b := NewHeadless()
	p, err := b.Read()
	require.NoError(t, err)
	assert.True(t, p.IsNone())
	assert.NoError(t, b.Write(payload.Text("ignored")))
	select {
	case <-b.Watch():
		t.Fatal("headless backend must never signal")
	default:
	}
}

// threadBackend records which goroutine identity executed each call.
type threadBackend struct {
	*Memory
	mu      sync.Mutex
	callers map[uint64]struct{}
}

func (b *threadBackend) Read() (payload.Payload, error) {
	b.record()
	return b.Memory.Read()
}

func (b *threadBackend) Write(p payload.Payload) error {
	b.record()
	return b.Memory.Write(p)
}

func (b *threadBackend) record() {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	var id uint64
	// "goroutine 123 [running]:"
	for _, c := range buf[len("goroutine "):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	b.mu.Lock()
	b.callers[id] = struct{}{}
	b.mu.Unlock()
}

func TestPinnedRunsOnOneGoroutine(t *testing.T) {
	inner := &threadBackend{Memory: NewMemory(), callers: map[uint64]struct{}{}}
	p := Pinned(inner)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Write(payload.Text("v")))
			_, err := p.Read()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, inner.callers, 1)
	assert.Len(t, inner.Writes(), 8)
}

func TestPinnedAfterClose(t *testing.T) {
	p := Pinned(NewMemory())
	p.Close()
	p.Close()
	assert.ErrorIs(t, p.Write(payload.Text("late")), ErrClosed)
	_, err := p.Read()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMonitorRun(t *testing.T) {
	m := NewMemory()
	mon := NewMonitor(m)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- mon.Run(ctx, func(context.Context) {
			calls.Add(1)
			fired <- struct{}{}
		})
	}()

	m.Set(payload.Text("one"))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("monitor did not fire")
	}
	cur, err := mon.Current()
	require.NoError(t, err)
	assert.Equal(t, "one", cur.String())

	cancel()
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, calls.Load())
}
