package device

import (
	"sync"
	"time"
)

// Fake is an in-memory [Context] for tests. Capture devices replay canned
// PCM in fixed-size frames and then feed silence; playback devices record
// every write. The fake tracks open devices so teardown tests can assert
// that nothing leaks.
type Fake struct {
	mu        sync.Mutex
	pcm       []byte
	open      int
	closed    bool
	captErr   error
	playErr   error
	playbacks []*FakePlayback
}

var _ Context = (*Fake)(nil)

// NewFake creates a fake context whose capture devices replay pcm.
func NewFake(pcm []byte) *Fake {
	return &Fake{pcm: pcm}
}

// FailCapture makes every subsequent OpenCapture return err.
func (f *Fake) FailCapture(err error) {
	f.mu.Lock()
	f.captErr = err
	f.mu.Unlock()
}

// FailPlayback makes every subsequent OpenPlayback return err.
func (f *Fake) FailPlayback(err error) {
	f.mu.Lock()
	f.playErr = err
	f.mu.Unlock()
}

// OpenDevices reports how many devices are currently open (opened and not
// yet closed).
func (f *Fake) OpenDevices() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Closed reports whether the context itself has been closed.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Playbacks returns every playback device opened so far, in open order.
func (f *Fake) Playbacks() []*FakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakePlayback, len(f.playbacks))
	copy(out, f.playbacks)
	return out
}

func (f *Fake) OpenCapture(cfg CaptureConfig, cb CaptureCallback) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captErr != nil {
		return nil, f.captErr
	}
	f.open++
	frameBytes := cfg.FrameSize * 2 * cfg.Channels
	if frameBytes <= 0 {
		frameBytes = 2048
	}
	return &FakeCapture{
		pcm:        f.pcm,
		frameBytes: frameBytes,
		cb:         cb,
		onClose:    f.deviceClosed,
	}, nil
}

func (f *Fake) OpenPlayback(PlaybackConfig) (PlaybackDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return nil, f.playErr
	}
	f.open++
	pb := &FakePlayback{onClose: f.deviceClosed}
	f.playbacks = append(f.playbacks, pb)
	return pb, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) deviceClosed() {
	f.mu.Lock()
	f.open--
	f.mu.Unlock()
}

// FakeCapture replays canned PCM through its callback, one frame per
// millisecond, then feeds silence until stopped.
type FakeCapture struct {
	pcm        []byte
	frameBytes int
	cb         CaptureCallback
	onClose    func()

	mu       sync.Mutex
	stopCh   chan struct{}
	feedDone chan struct{}
	started  bool
	closed   bool
}

func (c *FakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.started = true
	c.stopCh = make(chan struct{})
	c.feedDone = make(chan struct{})

	stop, done := c.stopCh, c.feedDone
	go c.feed(stop, done)
	return nil
}

func (c *FakeCapture) feed(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	silence := make([]byte, c.frameBytes)
	pos := 0
	for {
		select {
		case <-stop:
			return
		case <-time.After(time.Millisecond):
		}

		if pos < len(c.pcm) {
			end := min(pos+c.frameBytes, len(c.pcm))
			chunk := make([]byte, c.frameBytes)
			copy(chunk, c.pcm[pos:end])
			pos = end
			c.cb(chunk, uint32(c.frameBytes/2))
		} else {
			c.cb(silence, uint32(c.frameBytes/2))
		}
	}
}

func (c *FakeCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

func (c *FakeCapture) stopLocked() {
	if !c.started {
		return
	}
	c.started = false
	close(c.stopCh)
	<-c.feedDone
}

func (c *FakeCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.stopLocked()
	c.onClose()
	return nil
}

// FakePlayback records writes and resets for assertions.
type FakePlayback struct {
	onClose func()

	mu      sync.Mutex
	written [][]byte
	resets  int
	started bool
	closed  bool
}

func (p *FakePlayback) Start() error {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	return nil
}

func (p *FakePlayback) Write(pcm []byte) error {
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	p.mu.Lock()
	p.written = append(p.written, cp)
	p.mu.Unlock()
	return nil
}

func (p *FakePlayback) Reset() {
	p.mu.Lock()
	p.resets++
	p.mu.Unlock()
}

func (p *FakePlayback) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	p.onClose()
	return nil
}

// Written returns a copy of every buffer written so far.
func (p *FakePlayback) Written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.written))
	copy(out, p.written)
	return out
}

// Resets reports how many times the queue was discarded.
func (p *FakePlayback) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}
