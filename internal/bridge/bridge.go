// Package bridge is the synchronization engine between the OS clipboard and
// the shared folder.
//
// Every clipboard change is mirrored into text.txt or img.png (outbound) and
// every change to those files is mirrored into the clipboard (inbound). The
// hard part is not acting on our own writes:
//
//   - Suppression: while an outbound write to a file is in progress, file
//     notifications for that file are ignored; while an inbound clipboard
//     write is in progress, clipboard notifications of that kind are ignored.
//   - Echo guard: notifications that arrive after the suppression window
//     (polling backends, asynchronous fsnotify delivery) carry content whose
//     fingerprint matches what the channel last synced, and are skipped.
//   - Debounce: a file save seen as N raw notifications counts once.
//
// Text and image are independent channels. Each has its own suppression
// flags and its own lane, a goroutine processing that channel's work in
// arrival order, so a slow image sync never holds up text and vice versa.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipshare/internal/clip"
	"go.klb.dev/clipshare/internal/codec"
	"go.klb.dev/clipshare/internal/logging"
	"go.klb.dev/clipshare/internal/payload"
	"go.klb.dev/clipshare/internal/shared"
	"go.klb.dev/clipshare/internal/watch"
)

const laneQueue = 64

// Direction of a sync.
type Direction int

const (
	Outbound Direction = iota // clipboard → file
	Inbound                   // file → clipboard
)

func (d Direction) String() string {
	if d == Inbound {
		return "in"
	}
	return "out"
}

// Store is the shared-folder side of the bridge. *shared.Dir implements it.
type Store interface {
	Read(f shared.File) ([]byte, error)
	WriteText(b []byte) error
	WriteImage(b []byte) error
}

// ClipboardSource delivers clipboard change notifications. *clip.Monitor implements it.
type ClipboardSource interface {
	Run(ctx context.Context, fn func(context.Context)) error
}

// FileSource delivers shared-file notifications. *watch.Watcher implements it.
type FileSource interface {
	Run(ctx context.Context, fn func(context.Context, watch.Event)) error
}

// Config tunes debouncing and the image confirmation policy.
type Config struct {
	// TextDebounce is how many raw notifications make one logical change of
	// text.txt. Windows reports a save as two (open-for-write and
	// close-after-write).
	TextDebounce int
	// ImageDebounce is the same for img.png. Partial images fail to decode
	// and are retried on the next notification, so 1 is usually right.
	ImageDebounce int
	// DebounceWindow restarts a partial count when the previous raw
	// notification is older than this. Zero disables it.
	DebounceWindow time.Duration
	// ImageConfirmations is how many consecutive notifications carrying the
	// same image are needed before it is written out. Some screenshot tools
	// put transient images on the clipboard while capturing; 2 filters those.
	// Values below 2 commit on the first notification.
	ImageConfirmations int
}

// DefaultConfig returns the defaults for the running platform.
func DefaultConfig() Config {
	textDebounce := 1
	if runtime.GOOS == "windows" {
		textDebounce = 2
	}
	return Config{
		TextDebounce:       textDebounce,
		ImageDebounce:      1,
		DebounceWindow:     time.Second,
		ImageConfirmations: 1,
	}
}

// Controller owns all sync state for one shared directory.
type Controller struct {
	cfg   Config
	clip  clip.Backend
	store Store
	now   func() time.Time

	text  *channel
	image *channel

	deb     debouncer
	confirm imageConfirm

	done      chan struct{}
	closeOnce sync.Once
	lanes     sync.WaitGroup
}

// New creates a Controller and starts its lanes. Call Close when done.
func New(backend clip.Backend, store Store, cfg Config) *Controller {
	if cfg.TextDebounce < 1 {
		cfg.TextDebounce = 1
	}
	if cfg.ImageDebounce < 1 {
		cfg.ImageDebounce = 1
	}
	c := &Controller{
		cfg:   cfg,
		clip:  backend,
		store: store,
		now:   time.Now,
		text:  newChannel(payload.KindText, shared.TextFile),
		image: newChannel(payload.KindImage, shared.ImageFile),
		done:  make(chan struct{}),
	}
	for _, ch := range c.channels() {
		c.lanes.Add(1)
		go c.runLane(ch)
	}
	return c
}

// Run drives the controller from both event sources until ctx is done or
// either source fails.
func (c *Controller) Run(ctx context.Context, clipboard ClipboardSource, files FileSource) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return clipboard.Run(ctx, c.HandleClipboardChange)
	})
	g.Go(func() error {
		return files.Run(ctx, func(ctx context.Context, ev watch.Event) {
			c.HandleFileChange(ctx, ev.File)
		})
	})
	return g.Wait()
}

// Close stops the lanes. Work still queued is discarded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	c.lanes.Wait()
	for _, ch := range c.channels() {
		ch.shutdown()
	}
}

// Flush blocks until every job queued so far on both lanes has finished.
func (c *Controller) Flush() {
	var wg sync.WaitGroup
	for _, ch := range c.channels() {
		wg.Add(1)
		if !ch.push(job{kind: jobBarrier, done: wg.Done}) {
			wg.Done()
		}
	}
	wg.Wait()
}

// HandleClipboardChange is the outbound entry point, called once per
// clipboard-changed notification.
func (c *Controller) HandleClipboardChange(ctx context.Context) {
	p, err := c.clip.Read()
	if err != nil {
		// Locked by another process, usually. The next change re-notifies.
		c.dropRead(err)
		return
	}
	if p.IsNone() {
		c.confirm.reset()
		return
	}

	ch := c.channelFor(p.Kind)
	if ch.clipMuted.Load() {
		ch.stats.suppressed.Add(1)
		slog.Debug("clipboard change suppressed", "channel", ch.kind.String())
		return
	}

	if p.Kind != payload.KindImage {
		c.confirm.reset()
	} else if !c.confirm.observe(p, c.cfg.ImageConfirmations) {
		slog.Debug("image awaiting confirmation", "need", c.cfg.ImageConfirmations)
		return
	}

	c.enqueue(ch, job{kind: jobOutbound, p: p})
}

// HandleFileChange is the inbound entry point, called once per raw
// notification for a shared file.
func (c *Controller) HandleFileChange(ctx context.Context, f shared.File) {
	ch := c.channelForFile(f)
	if ch.fileMuted.Load() {
		ch.stats.suppressed.Add(1)
		slog.Debug("file change suppressed", "file", f.Name())
		return
	}
	if !c.deb.observe(f, c.debounceFor(f), c.cfg.DebounceWindow, c.now()) {
		return
	}
	c.enqueue(ch, job{kind: jobInbound})
}

// outbound writes p to the channel's shared file. Runs on the lane.
func (c *Controller) outbound(ch *channel, p payload.Payload) {
	if p.Kind == payload.KindImage {
		if _, err := codec.ImagePayload(p.Data); err != nil {
			ch.stats.dropped.Add(1)
			slog.Debug("clipboard image not decodable, dropping", "err", err)
			return
		}
	}

	fp := codec.Fingerprint(p)
	if ch.isLast(fp) {
		ch.stats.echoes.Add(1)
		slog.Debug("clipboard matches shared file, skipping", "channel", ch.kind.String())
		return
	}

	ch.fileMuted.Store(true)
	err := c.writeFile(p)
	ch.fileMuted.Store(false)
	if err != nil {
		ch.stats.dropped.Add(1)
		slog.Error("shared file write failed", "file", ch.file.Name(), "err", err)
		return
	}

	c.commit(ch, fp)
	ch.stats.outbound.Add(1)
	logging.LogPayload("clipboard shared", Outbound.String(), p)
}

func (c *Controller) writeFile(p payload.Payload) error {
	if p.Kind == payload.KindImage {
		return c.store.WriteImage(p.Data)
	}
	b, err := codec.EncodeText(p)
	if err != nil {
		return err
	}
	return c.store.WriteText(b)
}

// inbound applies the channel's shared file to the clipboard. Runs on the lane.
func (c *Controller) inbound(ch *channel) {
	raw, err := c.store.Read(ch.file)
	if err != nil {
		ch.stats.dropped.Add(1)
		slog.Debug("shared file unreadable, waiting for next change", "file", ch.file.Name(), "err", err)
		return
	}

	p, err := decodeFile(ch.kind, raw)
	if err != nil {
		ch.stats.dropped.Add(1)
		slog.Debug("shared file not decodable, waiting for next change", "file", ch.file.Name(), "err", err)
		return
	}
	if p.Size() == 0 {
		// An empty text.txt is a write-in-progress snapshot, not an intent
		// to blank the clipboard.
		slog.Debug("shared file empty, ignoring", "file", ch.file.Name())
		return
	}

	fp := codec.Fingerprint(p)
	if ch.isLast(fp) {
		ch.stats.echoes.Add(1)
		slog.Debug("shared file matches clipboard, skipping", "file", ch.file.Name())
		return
	}

	ch.clipMuted.Store(true)
	err = c.clip.Write(p)
	ch.clipMuted.Store(false)
	if err != nil {
		ch.stats.dropped.Add(1)
		slog.Error("clipboard write failed", "channel", ch.kind.String(), "err", err)
		return
	}

	c.commit(ch, fp)
	ch.stats.inbound.Add(1)
	logging.LogPayload("clipboard received", Inbound.String(), p)
}

func decodeFile(kind payload.Kind, raw []byte) (payload.Payload, error) {
	if kind == payload.KindImage {
		return codec.ImagePayload(raw)
	}
	return codec.DecodeText(raw)
}

// commit records fp as the content both sides of ch now hold. The other
// channel's record is cleared: the clipboard holds one thing at a time, so
// re-copying an older text after an image must sync again.
func (c *Controller) commit(ch *channel, fp uint64) {
	ch.setLast(fp)
	for _, other := range c.channels() {
		if other != ch {
			other.clearLast()
		}
	}
}

func (c *Controller) dropRead(err error) {
	level := slog.LevelDebug
	if errors.Is(err, clip.ErrClosed) {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "clipboard read failed, dropping notification", "err", err)
}

// enqueue hands j to the channel's lane. It never blocks: the caller is an
// event source shared by both channels, and a hung lane must not stall the
// other one.
func (c *Controller) enqueue(ch *channel, j job) {
	if ch.push(j) {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	ch.stats.dropped.Add(1)
	slog.Warn("sync lane full, dropping notification", "channel", ch.kind.String())
}

func (c *Controller) runLane(ch *channel) {
	defer c.lanes.Done()
	for {
		select {
		case <-ch.wake:
		case <-c.done:
			return
		}
		for {
			select {
			case <-c.done:
				return
			default:
			}
			j, ok := ch.pop()
			if !ok {
				break
			}
			c.run(ch, j)
		}
	}
}

func (c *Controller) run(ch *channel, j job) {
	switch j.kind {
	case jobOutbound:
		c.outbound(ch, j.p)
	case jobInbound:
		c.inbound(ch)
	case jobBarrier:
		j.done()
	}
}

func (c *Controller) channels() []*channel { return []*channel{c.text, c.image} }

func (c *Controller) channelFor(k payload.Kind) *channel {
	if k == payload.KindImage {
		return c.image
	}
	return c.text
}

func (c *Controller) channelForFile(f shared.File) *channel {
	if f == shared.ImageFile {
		return c.image
	}
	return c.text
}

func (c *Controller) debounceFor(f shared.File) int {
	if f == shared.ImageFile {
		return c.cfg.ImageDebounce
	}
	return c.cfg.TextDebounce
}
