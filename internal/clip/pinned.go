package clip

import (
	"runtime"
	"sync"

	"go.klb.dev/clipshare/internal/payload"
)

// pinnedBackend runs every Read and Write on one goroutine locked to a single
// OS thread. Some platforms require clipboard calls from a fixed thread; the
// caller still blocks until the call returns, so suppression windows around a
// write keep a precise begin and end.
type pinnedBackend struct {
	b     Backend
	calls chan func()
	done  chan struct{}
	once  sync.Once
}

// Pinned wraps b so its clipboard calls execute on a dedicated thread.
func Pinned(b Backend) Backend {
	p := &pinnedBackend{
		b:     b,
		calls: make(chan func()),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *pinnedBackend) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		select {
		case fn := <-p.calls:
			fn()
		case <-p.done:
			return
		}
	}
}

// do runs fn on the pinned thread and waits for it.
func (p *pinnedBackend) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case p.calls <- func() { fn(); close(finished) }:
	case <-p.done:
		return ErrClosed
	}
	<-finished
	return nil
}

func (p *pinnedBackend) Name() string { return p.b.Name() }

func (p *pinnedBackend) Read() (payload.Payload, error) {
	var (
		out payload.Payload
		err error
	)
	if derr := p.do(func() { out, err = p.b.Read() }); derr != nil {
		return payload.None, derr
	}
	return out, err
}

func (p *pinnedBackend) Write(pl payload.Payload) error {
	var err error
	if derr := p.do(func() { err = p.b.Write(pl) }); derr != nil {
		return derr
	}
	return err
}

func (p *pinnedBackend) Watch() <-chan struct{} { return p.b.Watch() }

func (p *pinnedBackend) Close() {
	p.once.Do(func() {
		close(p.done)
		p.b.Close()
	})
}
