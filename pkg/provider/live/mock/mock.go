// Package mock provides test doubles for the live package interfaces.
//
// Use Provider to verify Connect calls and feed controlled sessions. Use
// Session to script the inbound event stream and inspect which methods were
// invoked by the voice pipeline.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.Connect(ctx, cfg)
//	sess.Emit(live.Event{Kind: live.KindOpened})
package mock

import (
	"context"
	"sync"

	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
)

// ConnectCall records a single invocation of Provider.Connect.
type ConnectCall struct {
	// Ctx is the context passed to Connect.
	Ctx context.Context
	// Cfg is the SessionConfig passed to Connect.
	Cfg live.SessionConfig
}

// Provider is a mock implementation of live.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by Connect. If nil, Connect
	// returns a fresh default Session.
	Session live.SessionHandle

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// ProviderCapabilities is returned by Capabilities.
	ProviderCapabilities live.Capabilities

	// ConnectCalls records every call to Connect in order.
	ConnectCalls []ConnectCall
}

// Connect records the call and returns Session, ConnectErr.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{Ctx: ctx, Cfg: cfg})
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Capabilities returns ProviderCapabilities.
func (p *Provider) Capabilities() live.Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ProviderCapabilities
}

// Calls returns a copy of the recorded Connect calls. Thread-safe.
func (p *Provider) Calls() []ConnectCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConnectCall, len(p.ConnectCalls))
	copy(out, p.ConnectCalls)
	return out
}

// Ensure Provider implements live.Provider at compile time.
var _ live.Provider = (*Provider)(nil)

// SendAudioCall records a single invocation of Session.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the audio bytes that were passed to SendAudio.
	Chunk []byte
}

// Session is a mock implementation of live.SessionHandle. Tests script the
// inbound stream with Emit and EmitClosed; the pipeline under test consumes
// it through Events.
type Session struct {
	mu sync.Mutex

	events     chan live.Event
	closed     bool
	chanClosed bool

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// CloseErr, if non-nil, is returned by the first Close call.
	CloseErr error

	// SendAudioCalls records every call to SendAudio in order.
	SendAudioCalls []SendAudioCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

// NewSession creates a Session with a buffered event stream.
func NewSession() *Session {
	return &Session{events: make(chan live.Event, 64)}
}

// Emit pushes one event onto the session's stream.
func (s *Session) Emit(e live.Event) {
	s.events <- e
}

// EmitClosed pushes a KindClosed event and closes the stream, mimicking a
// real session's terminal sequence.
func (s *Session) EmitClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chanClosed {
		return
	}
	s.chanClosed = true
	s.events <- live.Event{Kind: live.KindClosed}
	close(s.events)
}

// SendAudio records the call and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, SendAudioCall{Chunk: cp})
	return s.SendAudioErr
}

// Events returns the scripted stream.
func (s *Session) Events() <-chan live.Event { return s.events }

// Close records the call and closes the event stream the way a real session
// does. The first call returns CloseErr; later calls return nil, matching
// the idempotency contract.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.chanClosed {
		s.chanClosed = true
		select {
		case s.events <- live.Event{Kind: live.KindClosed}:
		default:
		}
		close(s.events)
	}
	return s.CloseErr
}

// Closed reports whether Close has been called at least once.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// AudioSent returns a copy of the recorded SendAudio calls. Thread-safe.
func (s *Session) AudioSent() []SendAudioCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SendAudioCall, len(s.SendAudioCalls))
	copy(out, s.SendAudioCalls)
	return out
}

// Ensure Session implements live.SessionHandle at compile time.
var _ live.SessionHandle = (*Session)(nil)
