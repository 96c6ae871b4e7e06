// Package openai implements the live.Provider interface for OpenAI's
// Realtime API.
//
// It establishes a bidirectional WebSocket connection to the Realtime
// endpoint and exchanges JSON events according to the Realtime API protocol.
// Audio travels as base64-encoded PCM16 chunks; server events are folded
// into the session's single event stream.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/meetpoint-app/meetpoint/pkg/audio"
	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
)

// Compile-time assertions that Provider and session satisfy the live interfaces.
var _ live.Provider = (*Provider)(nil)
var _ live.SessionHandle = (*session)(nil)

const (
	defaultModel   = "gpt-4o-realtime-preview"
	defaultBaseURL = "wss://api.openai.com/v1/realtime"
)

// ── Options ────────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the OpenAI model used for sessions.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL overrides the base WebSocket URL. Primarily used in tests to
// point at a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// ── Provider ───────────────────────────────────────────────────────────────────

// Provider implements live.Provider for OpenAI's Realtime API.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
}

// New creates a new OpenAI Realtime Provider with the given API key and options.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Capabilities returns static metadata about the OpenAI Realtime provider.
func (p *Provider) Capabilities() live.Capabilities {
	return live.Capabilities{
		MaxSessionDuration: 30 * 60 * 1000,
		Voices:             []string{"alloy", "ash", "ballad", "coral", "echo", "sage", "shimmer", "verse"},
	}
}

// Connect establishes a new OpenAI Realtime session with the given
// configuration. The server's session.created event surfaces as KindOpened.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	wsURL := fmt.Sprintf("%s?model=%s", p.baseURL, p.model)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + p.apiKey},
			"OpenAI-Beta":   []string{"realtime=v1"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: dial: %w", err)
	}

	sessCtx, sessCancel := context.WithCancel(context.Background())
	sess := &session{
		conn:   conn,
		events: make(chan live.Event, 64),
		ctx:    sessCtx,
		cancel: sessCancel,
	}

	if err := sess.sendSessionUpdate(cfg); err != nil {
		sessCancel()
		conn.Close(websocket.StatusInternalError, "session update failed")
		return nil, fmt.Errorf("openai: session update: %w", err)
	}

	go sess.receiveLoop()

	return sess, nil
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	Voice                   string              `json:"voice,omitempty"`
	Instructions            string              `json:"instructions,omitempty"`
	InputAudioFormat        string              `json:"input_audio_format"`
	OutputAudioFormat       string              `json:"output_audio_format"`
	InputAudioTranscription *transcriptionParam `json:"input_audio_transcription,omitempty"`
}

type transcriptionParam struct {
	Model string `json:"model"`
}

type appendAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64-encoded PCM16
}

// serverErrorDetail represents the nested error object in an OpenAI Realtime
// error event: {"type":"error","error":{"type":"...","code":"...","message":"..."}}.
type serverErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type serverEvent struct {
	Type string `json:"type"`

	// response.audio.delta / response.audio_transcript.delta
	Delta string `json:"delta,omitempty"`

	// conversation.item.input_audio_transcription.completed
	Transcript string `json:"transcript,omitempty"`

	// error event
	Error *serverErrorDetail `json:"error,omitempty"`
}

// ── session ────────────────────────────────────────────────────────────────────

type session struct {
	conn   *websocket.Conn
	events chan live.Event

	mu     sync.Mutex
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// sendSessionUpdate sends a session.update event to configure voice,
// instructions, transcription, and audio formats.
func (s *session) sendSessionUpdate(cfg live.SessionConfig) error {
	params := sessionParams{
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		Voice:             cfg.Voice,
		Instructions:      cfg.Instructions,
	}
	if cfg.TranscribeInput {
		params.InputAudioTranscription = &transcriptionParam{Model: "whisper-1"}
	}
	// Output transcripts always arrive as response.audio_transcript.delta;
	// the consumer simply ignores them when TranscribeOutput is false.
	return s.writeJSON(sessionUpdateMessage{Type: "session.update", Session: params})
}

// writeJSON marshals v and writes it as a text WebSocket message.
func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("openai: marshal: %w", err)
	}
	return s.conn.Write(s.ctx, websocket.MessageText, data)
}

// receiveLoop reads events from the WebSocket and folds them into the event
// stream. It owns the events channel: it emits the final KindClosed and
// closes the channel when it exits.
func (s *session) receiveLoop() {
	defer s.closeEvents()

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.emit(live.Event{Kind: live.KindError, Err: fmt.Errorf("openai: read: %w", err)})
			}
			s.emit(live.Event{Kind: live.KindClosed})
			return
		}

		var evt serverEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}

		if !s.handleServerEvent(&evt) {
			return
		}
	}
}

// handleServerEvent dispatches one server event. Returns false when the
// event was fatal and the loop should exit.
func (s *session) handleServerEvent(evt *serverEvent) bool {
	switch evt.Type {
	case "session.created":
		s.emit(live.Event{Kind: live.KindOpened})

	case "response.audio.delta":
		if evt.Delta == "" {
			return true
		}
		pcm, err := audio.DecodeTransport(evt.Delta)
		if err != nil || len(pcm) == 0 {
			if err != nil {
				slog.Warn("openai: dropping undecodable audio chunk", "error", err)
			}
			return true
		}
		s.emit(live.Event{Kind: live.KindAudioChunk, Audio: pcm})

	case "response.audio_transcript.delta":
		if evt.Delta != "" {
			s.emit(live.Event{Kind: live.KindTranscript, Speaker: live.SpeakerAssistant, Text: evt.Delta})
		}

	case "conversation.item.input_audio_transcription.completed":
		if evt.Transcript != "" {
			s.emit(live.Event{Kind: live.KindTranscript, Speaker: live.SpeakerUser, Text: evt.Transcript})
		}

	case "input_audio_buffer.speech_started":
		// Barge-in: the user started talking over the reply.
		s.emit(live.Event{Kind: live.KindInterrupted})

	case "response.done":
		s.emit(live.Event{Kind: live.KindTurnComplete})

	case "error":
		msg := "unknown error"
		if evt.Error != nil && evt.Error.Message != "" {
			msg = evt.Error.Message
		}
		s.emit(live.Event{Kind: live.KindError, Err: fmt.Errorf("openai: server: %s", msg)})
		s.emit(live.Event{Kind: live.KindClosed})
		return false
	}
	return true
}

// emit delivers an event to the consumer. After local cancellation it makes
// a best-effort non-blocking attempt so the final KindClosed still lands
// when there is room.
func (s *session) emit(e live.Event) {
	select {
	case s.events <- e:
	case <-s.ctx.Done():
		select {
		case s.events <- e:
		default:
		}
	}
}

func (s *session) closeEvents() {
	s.closeOnce.Do(func() {
		close(s.events)
	})
}

// ── SessionHandle methods ──────────────────────────────────────────────────────

// SendAudio delivers a raw PCM16 audio chunk to the model.
func (s *session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("openai: session closed")
	}
	s.mu.Unlock()

	return s.writeJSON(appendAudioMessage{
		Type:  "input_audio_buffer.append",
		Audio: audio.EncodeTransport(chunk),
	})
}

// Events returns the channel carrying the session's inbound event stream.
func (s *session) Events() <-chan live.Event { return s.events }

// Close terminates the session and releases all resources. Idempotent.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.conn.Close(websocket.StatusNormalClosure, "session closed")
	return nil
}
