// Package voice runs the real-time voice conversation: microphone capture,
// the live streaming session, transcript accumulation, and gapless reply
// playback.
//
// A [Supervisor] owns at most one active session. Start acquires the audio
// devices and opens a streaming session; a single event-loop goroutine then
// consumes the session's typed event stream and owns all state-machine and
// transcript state. Device callbacks and HTTP handlers never touch that
// state directly. Stop tears everything down in a fixed order, exactly once,
// and is safe to call at any time.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/meetpoint-app/meetpoint/pkg/audio"
	"github.com/meetpoint-app/meetpoint/pkg/audio/device"
	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
)

// ErrAlreadyActive is returned by Start while a voice session is active.
var ErrAlreadyActive = errors.New("voice: session already active")

// Config holds the per-session settings the supervisor passes to the live
// provider and the capture device.
type Config struct {
	// Instructions is the system instruction sent at session setup.
	Instructions string

	// Voice is the provider voice name, empty for the provider default.
	Voice string

	// FrameSize is the capture callback period in samples. Zero selects
	// defaultFrameSize.
	FrameSize int
}

// Update is one entry of the status/transcript stream delivered to
// subscribers.
type Update struct {
	Status     Status `json:"status"`
	Transcript []Turn `json:"transcript"`
}

// Option is a functional option for configuring a Supervisor.
type Option func(*Supervisor)

// WithClock overrides the scheduler clock. Used in tests.
func WithClock(c Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithMetrics wires pipeline counters.
func WithMetrics(m Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithStopHook registers a callback invoked after each completed teardown.
// The composition root uses it to re-arm the text-mode chat session, which
// is mutually exclusive with voice.
func WithStopHook(f func()) Option {
	return func(s *Supervisor) { s.onStopped = f }
}

// ── Supervisor ────────────────────────────────────────────────────────────────

// Supervisor manages the lifecycle of the voice conversation.
type Supervisor struct {
	provider  live.Provider
	devices   device.Context
	cfg       Config
	clock     Clock
	metrics   Metrics
	onStopped func()

	transcript Transcript

	mu        sync.Mutex
	status    Status
	active    *activeSession
	subs      map[int]chan Update
	nextSubID int
}

// activeSession holds everything one running session owns. It is consumed
// exactly once by teardown; no field is nilled out or checked individually.
type activeSession struct {
	session   live.SessionHandle
	capture   device.CaptureDevice
	playback  device.PlaybackDevice
	scheduler *Scheduler

	// ready flips true once the session reports Opened and false at
	// teardown. It gates the capture callback.
	ready atomic.Bool

	// idleCh receives a token from the scheduler each time the pending
	// playback set drains, so the event loop can leave SPEAKING.
	idleCh chan struct{}

	mu       sync.Mutex
	consumed bool
}

// consume marks the holder spent. Reports whether the caller won.
func (a *activeSession) consume() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return false
	}
	a.consumed = true
	return true
}

// spent reports whether teardown already consumed the holder.
func (a *activeSession) spent() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.consumed
}

// New creates a Supervisor using provider for streaming sessions and devices
// for capture/playback.
func New(provider live.Provider, devices device.Context, cfg Config, opts ...Option) *Supervisor {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = defaultFrameSize
	}
	s := &Supervisor{
		provider: provider,
		devices:  devices,
		cfg:      cfg,
		clock:    NewClock(),
		metrics:  nopMetrics{},
		subs:     make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current lifecycle state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TranscriptSnapshot returns a copy of the conversation log.
func (s *Supervisor) TranscriptSnapshot() []Turn {
	return s.transcript.Snapshot()
}

// Subscribe registers a status/transcript stream. The returned cancel
// function unregisters and closes the channel. Slow subscribers miss
// intermediate updates rather than blocking the event loop.
func (s *Supervisor) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// ── Start / Stop ──────────────────────────────────────────────────────────────

// Start acquires the audio devices, opens a streaming session, and launches
// the event loop. It returns ErrAlreadyActive when a session is active and
// releases every partially acquired resource on failure, landing back in
// INACTIVE.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusInactive {
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.setStatusLocked(StatusConnecting)
	cfg := s.cfg
	s.mu.Unlock()

	act, err := s.acquire(ctx, cfg)
	if err != nil {
		s.mu.Lock()
		s.setStatusLocked(StatusInactive)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.status != StatusConnecting {
		// Stop arrived while we were connecting.
		s.mu.Unlock()
		s.release(act)
		return fmt.Errorf("voice: start aborted by stop")
	}
	s.active = act
	s.mu.Unlock()

	s.transcript.Clear()
	s.metrics.SessionStarted()
	go s.run(act)
	return nil
}

// UpdateConfig replaces the session configuration. It applies to the next
// Start; an active session keeps the settings it was opened with.
func (s *Supervisor) UpdateConfig(cfg Config) {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = defaultFrameSize
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// acquire opens the playback device, capture device, and streaming session
// in order, releasing earlier resources when a later step fails.
func (s *Supervisor) acquire(ctx context.Context, cfg Config) (*activeSession, error) {
	playback, err := s.devices.OpenPlayback(device.PlaybackConfig{
		SampleRate: audio.PlaybackRate,
		Channels:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("voice: open playback device: %w", err)
	}

	act := &activeSession{
		playback: playback,
		idleCh:   make(chan struct{}, 1),
	}
	act.scheduler = NewScheduler(playback, s.clock, func() {
		select {
		case act.idleCh <- struct{}{}:
		default:
		}
	})

	capture, err := s.devices.OpenCapture(device.CaptureConfig{
		SampleRate: audio.CaptureRate,
		Channels:   1,
		FrameSize:  cfg.FrameSize,
	}, s.captureCallback(act))
	if err != nil {
		playback.Close()
		return nil, fmt.Errorf("voice: open capture device: %w", err)
	}
	act.capture = capture

	sess, err := s.provider.Connect(ctx, live.SessionConfig{
		Instructions:     cfg.Instructions,
		Voice:            cfg.Voice,
		TranscribeInput:  true,
		TranscribeOutput: true,
	})
	if err != nil {
		capture.Close()
		playback.Close()
		return nil, fmt.Errorf("voice: connect session: %w", err)
	}
	act.session = sess

	if err := capture.Start(); err != nil {
		sess.Close()
		capture.Close()
		playback.Close()
		audio.Drain(sess.Events())
		return nil, fmt.Errorf("voice: start capture device: %w", err)
	}
	if err := playback.Start(); err != nil {
		capture.Stop()
		sess.Close()
		capture.Close()
		playback.Close()
		audio.Drain(sess.Events())
		return nil, fmt.Errorf("voice: start playback device: %w", err)
	}

	return act, nil
}

// release tears down a fully acquired session that never entered the event
// loop (stop raced the connect).
func (s *Supervisor) release(act *activeSession) {
	s.teardown(act)
	audio.Drain(act.session.Events())
}

// Stop tears down the active session. It is an idempotent no-op when no
// session is active and safe to call while Start is still connecting.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	act := s.active
	if act == nil {
		// Either fully inactive or Start is mid-connect; flipping the
		// status out of CONNECTING makes Start roll back on arrival.
		if s.status != StatusInactive {
			s.setStatusLocked(StatusInactive)
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.teardown(act)
}

// teardown consumes the resource holder exactly once and releases its
// resources in a fixed order: stop capture forwarding, release the capture
// device, stop and clear pending playback, close the playback device, close
// the transport. Each step is individually guarded; failures are logged and
// never block later steps.
func (s *Supervisor) teardown(act *activeSession) {
	if !act.consume() {
		return
	}
	act.ready.Store(false)

	if err := act.capture.Stop(); err != nil {
		slog.Warn("voice: stop capture device", "error", err)
	}
	if err := act.capture.Close(); err != nil {
		slog.Warn("voice: close capture device", "error", err)
	}
	act.scheduler.Close()
	if err := act.playback.Close(); err != nil {
		slog.Warn("voice: close playback device", "error", err)
	}
	if err := act.session.Close(); err != nil {
		slog.Warn("voice: close session transport", "error", err)
	}

	s.transcript.Finalize()

	s.mu.Lock()
	if s.active == act {
		s.active = nil
	}
	s.setStatusLocked(StatusInactive)
	onStopped := s.onStopped
	s.mu.Unlock()

	s.metrics.SessionStopped()
	if onStopped != nil {
		onStopped()
	}
}

// ── Event loop ────────────────────────────────────────────────────────────────

// run is the session's single event-loop goroutine. It owns all state-machine
// transitions and the transcript, and exits once the event stream closes.
func (s *Supervisor) run(act *activeSession) {
	defer s.teardown(act)

	events := act.session.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !s.handleEvent(act, ev) {
				s.teardown(act)
				audio.Drain(events)
				return
			}
		case <-act.idleCh:
			s.onPlaybackIdle()
		}
	}
}

// handleEvent applies one session event. Returns false when the event was
// terminal and the loop should exit.
func (s *Supervisor) handleEvent(act *activeSession, ev live.Event) bool {
	// The transport delivers events it had already buffered when Stop tore
	// the session down. Once the holder is consumed they must not touch the
	// state machine; only the terminal Closed still ends the loop.
	if act.spent() {
		return ev.Kind != live.KindClosed
	}

	switch ev.Kind {
	case live.KindOpened:
		act.ready.Store(true)
		s.setStatusIf(StatusConnecting, StatusListening)

	case live.KindTranscript:
		s.transcript.Append(ev.Speaker, ev.Text)
		s.broadcast()

	case live.KindTurnComplete:
		s.transcript.Finalize()
		s.setStatusIf(StatusListening, StatusThinking)

	case live.KindAudioChunk:
		if _, err := act.scheduler.Schedule(ev.Audio); err != nil {
			slog.Warn("voice: dropping malformed reply chunk", "error", err)
			s.metrics.ChunkDropped()
			return true
		}
		s.metrics.QueueDepth(act.scheduler.Pending())
		s.setStatusSession(act, StatusSpeaking)

	case live.KindInterrupted:
		act.scheduler.Interrupt()
		s.metrics.QueueDepth(0)
		s.transcript.Finalize()
		s.setStatusSession(act, StatusListening)

	case live.KindError:
		// Terminal; the provider follows with KindClosed.
		slog.Error("voice: session error", "error", ev.Err)

	case live.KindClosed:
		return false
	}
	return true
}

// onPlaybackIdle returns to LISTENING once the reply finishes playing.
func (s *Supervisor) onPlaybackIdle() {
	s.metrics.QueueDepth(0)
	s.setStatusIf(StatusSpeaking, StatusListening)
}

// ── Status bookkeeping ────────────────────────────────────────────────────────

// setStatusIf transitions from→to only when the current status is from.
func (s *Supervisor) setStatusIf(from, to Status) {
	s.mu.Lock()
	if s.status == from {
		s.setStatusLocked(to)
	}
	s.mu.Unlock()
}

// setStatusSession applies st only while act is still the installed session.
// Teardown clears the slot and sets INACTIVE under the same lock, so an event
// racing Stop can never pull the supervisor back out of INACTIVE.
func (s *Supervisor) setStatusSession(act *activeSession, st Status) {
	s.mu.Lock()
	if s.active == act {
		s.setStatusLocked(st)
	}
	s.mu.Unlock()
}

// setStatusLocked updates the status and notifies subscribers. Caller holds
// s.mu.
func (s *Supervisor) setStatusLocked(st Status) {
	if s.status == st {
		return
	}
	s.status = st
	s.broadcastLocked()
}

// broadcast sends the current status and transcript to every subscriber.
func (s *Supervisor) broadcast() {
	s.mu.Lock()
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *Supervisor) broadcastLocked() {
	if len(s.subs) == 0 {
		return
	}
	u := Update{Status: s.status, Transcript: s.transcript.Snapshot()}
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
