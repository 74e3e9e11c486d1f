package bridge

import (
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipshare/internal/codec"
	"go.klb.dev/clipshare/internal/payload"
	"go.klb.dev/clipshare/internal/shared"
)

// channel is the per-kind sync state: suppression flags, the last synced
// fingerprint and the lane queue.
type channel struct {
	kind payload.Kind
	file shared.File

	mu     sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}

	// fileMuted is set while an outbound write to file is in flight.
	fileMuted atomic.Bool
	// clipMuted is set while an inbound clipboard write is in flight.
	clipMuted atomic.Bool

	last    atomic.Uint64
	hasLast atomic.Bool

	stats counters
}

func newChannel(kind payload.Kind, file shared.File) *channel {
	return &channel{kind: kind, file: file, wake: make(chan struct{}, 1)}
}

type jobKind int

const (
	jobOutbound jobKind = iota
	jobInbound
	jobBarrier
)

// job is one unit of lane work. Outbound jobs carry the clipboard payload;
// inbound jobs re-read the shared file when they run; barriers call done.
type job struct {
	kind jobKind
	p    payload.Payload
	done func()
}

// push queues j without blocking and reports whether it was accepted.
//
// An inbound job is dropped while another inbound job is pending with no
// outbound work queued behind it: both would read the same file. When the
// queue is full an outbound job replaces a pending outbound tail, so the
// newest clipboard content still gets out.
// Barriers are always accepted unless the channel is shut down.
func (ch *channel) push(j job) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return false
	}

	switch j.kind {
	case jobInbound:
		for i := len(ch.queue) - 1; i >= 0; i-- {
			k := ch.queue[i].kind
			if k == jobInbound {
				return true
			}
			if k == jobOutbound {
				break
			}
		}
		if ch.pending() >= laneQueue {
			return false
		}
	case jobOutbound:
		if ch.pending() >= laneQueue {
			n := len(ch.queue)
			if n == 0 || ch.queue[n-1].kind != jobOutbound {
				return false
			}
			ch.queue[n-1].p = j.p
			return true
		}
	}

	ch.queue = append(ch.queue, j)
	select {
	case ch.wake <- struct{}{}:
	default:
	}
	return true
}

// pending counts queued sync jobs, barriers excluded. Callers hold mu.
func (ch *channel) pending() int {
	n := 0
	for _, q := range ch.queue {
		if q.kind != jobBarrier {
			n++
		}
	}
	return n
}

func (ch *channel) pop() (job, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.queue) == 0 {
		return job{}, false
	}
	j := ch.queue[0]
	ch.queue[0] = job{}
	ch.queue = ch.queue[1:]
	return j, true
}

// shutdown discards queued work and releases any waiting barriers.
func (ch *channel) shutdown() {
	ch.mu.Lock()
	q := ch.queue
	ch.queue = nil
	ch.closed = true
	ch.mu.Unlock()

	for _, j := range q {
		if j.kind == jobBarrier {
			j.done()
		}
	}
}

func (ch *channel) isLast(fp uint64) bool {
	return ch.hasLast.Load() && ch.last.Load() == fp
}

func (ch *channel) setLast(fp uint64) {
	ch.last.Store(fp)
	ch.hasLast.Store(true)
}

func (ch *channel) clearLast() { ch.hasLast.Store(false) }

type counters struct {
	outbound   atomic.Uint64
	inbound    atomic.Uint64
	suppressed atomic.Uint64
	echoes     atomic.Uint64
	dropped    atomic.Uint64
}

// ChannelStats is a snapshot of one channel's counters.
type ChannelStats struct {
	Channel    string `json:"channel"`
	File       string `json:"file"`
	Outbound   uint64 `json:"outbound"`
	Inbound    uint64 `json:"inbound"`
	Suppressed uint64 `json:"suppressed"`
	Echoes     uint64 `json:"echoes"`
	Dropped    uint64 `json:"dropped"`
}

// Stats returns counters for the text and image channels, in that order.
func (c *Controller) Stats() []ChannelStats {
	out := make([]ChannelStats, 0, 2)
	for _, ch := range c.channels() {
		out = append(out, ChannelStats{
			Channel:    ch.kind.String(),
			File:       ch.file.Name(),
			Outbound:   ch.stats.outbound.Load(),
			Inbound:    ch.stats.inbound.Load(),
			Suppressed: ch.stats.suppressed.Load(),
			Echoes:     ch.stats.echoes.Load(),
			Dropped:    ch.stats.dropped.Load(),
		})
	}
	return out
}

// debouncer collapses raw file notifications into logical changes. A single
// counter follows the file that fired last; another file firing restarts it.
type debouncer struct {
	mu    sync.Mutex
	file  shared.File
	count int
	at    time.Time
}

// observe records one notification for f and reports whether it completes a
// logical change of need notifications.
func (d *debouncer) observe(f shared.File, need int, window time.Duration, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	stale := window > 0 && !d.at.IsZero() && now.Sub(d.at) > window
	if d.count == 0 || d.file != f || stale {
		d.file = f
		d.count = 0
	}
	d.at = now
	d.count++
	if d.count < need {
		return false
	}
	d.count = 0
	return true
}

// imageConfirm counts consecutive notifications carrying the same image.
type imageConfirm struct {
	mu    sync.Mutex
	fp    uint64
	count int
}

// observe records p and reports whether it has now been seen need times in a
// row. The count resets on commit.
func (ic *imageConfirm) observe(p payload.Payload, need int) bool {
	if need < 2 {
		return true
	}
	fp := codec.Fingerprint(p)

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.count == 0 || ic.fp != fp {
		ic.fp = fp
		ic.count = 0
	}
	ic.count++
	if ic.count < need {
		return false
	}
	ic.count = 0
	return true
}

func (ic *imageConfirm) reset() {
	ic.mu.Lock()
	ic.count = 0
	ic.mu.Unlock()
}
