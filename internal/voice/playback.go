package voice

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meetpoint-app/meetpoint/pkg/audio"
	"github.com/meetpoint-app/meetpoint/pkg/audio/device"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

// Clock abstracts wall time and timer creation so the scheduler's gapless and
// interruption invariants are testable without a real device or real delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a stoppable pending callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing. Reports whether it was still
	// pending.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// NewClock returns a Clock backed by the time package.
func NewClock() Clock { return realClock{} }

// ── Scheduler ─────────────────────────────────────────────────────────────────

// Scheduler plays reply audio chunks gaplessly. Each buffer is scheduled at
// max(cursor, now); the cursor then advances by the buffer's duration, so
// consecutive buffers are back-to-back with no overlap. Buffers are written
// to the playback device when their start time arrives and retired when they
// finish; the scheduler reports idle when the pending set empties.
//
// Interrupt force-stops every pending buffer and resets the cursor, so the
// next buffer schedules from the current time.
type Scheduler struct {
	dev    device.PlaybackDevice
	clock  Clock
	onIdle func()

	mu      sync.Mutex
	cursor  time.Time
	pending map[int]*scheduledBuffer
	nextID  int
	closed  bool
}

type scheduledBuffer struct {
	start time.Time
	timer Timer
}

// NewScheduler creates a Scheduler writing to dev. onIdle, if non-nil, is
// invoked from a timer goroutine each time the pending set drains to empty.
func NewScheduler(dev device.PlaybackDevice, clock Clock, onIdle func()) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	return &Scheduler{
		dev:     dev,
		clock:   clock,
		onIdle:  onIdle,
		pending: make(map[int]*scheduledBuffer),
	}
}

// Schedule enqueues one mono PCM16 buffer at the playback rate and returns
// its start time. Buffers whose length is not a whole number of samples are
// rejected with audio.ErrMalformedAudio.
func (s *Scheduler) Schedule(pcm []byte) (time.Time, error) {
	if len(pcm) == 0 || len(pcm)%2 != 0 {
		return time.Time{}, fmt.Errorf("voice: schedule %d byte buffer: %w", len(pcm), audio.ErrMalformedAudio)
	}
	d := audio.PCMDuration(len(pcm), audio.PlaybackRate, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return time.Time{}, fmt.Errorf("voice: scheduler closed")
	}

	now := s.clock.Now()
	start := s.cursor
	if start.Before(now) {
		start = now
	}
	s.cursor = start.Add(d)

	id := s.nextID
	s.nextID++

	data := make([]byte, len(pcm))
	copy(data, pcm)

	buf := &scheduledBuffer{start: start}
	buf.timer = s.clock.AfterFunc(start.Sub(now), func() { s.fire(id, data, d) })
	s.pending[id] = buf

	return start, nil
}

// fire writes the buffer to the device at its start time and arms the
// retirement timer for its end.
func (s *Scheduler) fire(id int, pcm []byte, d time.Duration) {
	s.mu.Lock()
	buf, ok := s.pending[id]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	buf.timer = s.clock.AfterFunc(d, func() { s.retire(id) })
	s.mu.Unlock()

	if err := s.dev.Write(pcm); err != nil {
		slog.Warn("voice: playback write", "error", err)
	}
}

// retire removes a finished buffer and reports idle when it was the last one.
func (s *Scheduler) retire(id int) {
	s.mu.Lock()
	if _, ok := s.pending[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	idle := len(s.pending) == 0 && !s.closed
	onIdle := s.onIdle
	s.mu.Unlock()

	if idle && onIdle != nil {
		onIdle()
	}
}

// Pending returns the number of in-flight scheduled buffers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Interrupt force-stops every pending buffer, flushes the device, and resets
// the cursor. Stopped buffers never write to the device and never report
// idle. The scheduler remains usable.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.dev.Reset()
}

// Close interrupts all pending playback and rejects further scheduling.
// Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.clearLocked()
	s.mu.Unlock()
	s.dev.Reset()
}

// clearLocked stops all timers and empties the pending set. Caller holds s.mu.
func (s *Scheduler) clearLocked() {
	for id, buf := range s.pending {
		buf.timer.Stop()
		delete(s.pending, id)
	}
	s.cursor = time.Time{}
}
