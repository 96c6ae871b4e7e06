// Package live defines the Provider interface for realtime duplex voice
// backends.
//
// A live provider wraps a speech-capable model endpoint that accepts a
// continuous stream of PCM audio and returns synthesised audio plus
// transcripts in a single stateful session. Examples are the Gemini Live API
// and the OpenAI Realtime API.
//
// The central abstraction is SessionHandle: a duplex connection whose entire
// inbound side is a single ordered stream of [Event] values. Connection
// open, transcript fragments, audio chunks, turn boundaries, interruptions,
// errors, and closure all arrive as variants of the same tagged union, so a
// consumer is one for-range loop over Events.
//
// All implementations must be safe for concurrent use.
package live

import "context"

// Speaker identifies which side of the conversation a transcript fragment
// belongs to.
type Speaker string

const (
	// SpeakerUser marks transcripts of the user's own speech as recognised
	// by the remote endpoint.
	SpeakerUser Speaker = "user"

	// SpeakerAssistant marks transcripts of the model's spoken reply.
	SpeakerAssistant Speaker = "assistant"
)

// EventKind discriminates the variants of [Event].
type EventKind int

const (
	// KindOpened signals that the endpoint acknowledged session setup. The
	// session accepts audio from this point on.
	KindOpened EventKind = iota + 1

	// KindTranscript carries a partial transcript fragment. Speaker and
	// Text are set.
	KindTranscript

	// KindAudioChunk carries decoded PCM bytes of the model's spoken reply.
	// Audio is set.
	KindAudioChunk

	// KindTurnComplete signals that the model has finished processing the
	// user's turn and the reply (if any) is complete.
	KindTurnComplete

	// KindInterrupted signals barge-in: the user started speaking while the
	// reply was still streaming. Buffered playback should be discarded.
	KindInterrupted

	// KindError carries a session-fatal failure in Err. Always followed by
	// KindClosed.
	KindError

	// KindClosed is the final event before the stream closes.
	KindClosed
)

// String returns the event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case KindOpened:
		return "opened"
	case KindTranscript:
		return "transcript"
	case KindAudioChunk:
		return "audio_chunk"
	case KindTurnComplete:
		return "turn_complete"
	case KindInterrupted:
		return "interrupted"
	case KindError:
		return "error"
	case KindClosed:
		return "closed"
	}
	return "unknown"
}

// Event is one message from the session's inbound stream. Kind selects the
// variant; only the fields documented for that variant are set.
type Event struct {
	Kind EventKind

	// Speaker and Text are set for KindTranscript.
	Speaker Speaker
	Text    string

	// Audio holds raw little-endian 16-bit PCM for KindAudioChunk, at the
	// provider's playback rate (24 kHz mono for Gemini Live and OpenAI
	// Realtime).
	Audio []byte

	// Err is set for KindError.
	Err error
}

// SessionConfig is the one-time configuration sent when a session opens.
type SessionConfig struct {
	// Instructions is the system-level prompt defining the assistant's
	// behaviour for the whole session.
	Instructions string

	// Voice names the prebuilt voice used for synthesised speech. Empty
	// selects the provider default.
	Voice string

	// TranscribeInput requests transcripts of the user's audio.
	TranscribeInput bool

	// TranscribeOutput requests transcripts of the model's spoken reply.
	TranscribeOutput bool
}

// Capabilities describes static properties of a live provider. The values
// are assumed constant for the lifetime of the Provider instance.
type Capabilities struct {
	// MaxSessionDuration is the provider's hard session lifetime limit in
	// milliseconds. Zero means no documented limit.
	MaxSessionDuration int

	// Voices lists the prebuilt voice names this provider accepts.
	Voices []string
}

// SessionHandle represents an open live session.
//
// The session is the hot path of the voice pipeline — every method must
// return quickly. The inbound side is channel-based so consumers never block
// the provider's receive loop for long; outbound audio is a direct write.
//
// Callers must call Close when the session is no longer needed and must
// drain Events until it closes.
type SessionHandle interface {
	// SendAudio delivers one chunk of raw PCM (16 kHz, s16le, mono) to the
	// model. Returns an error if the session is closed or the transport
	// rejects the write.
	SendAudio(chunk []byte) error

	// Events returns the session's inbound event stream. The channel is
	// closed by the implementation after it emits KindClosed (preceded by
	// KindError when the session died). The same channel is returned on
	// every call.
	Events() <-chan Event

	// Close terminates the session and closes the Events channel. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any realtime voice backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Connect establishes a new live session with the given configuration.
	// The caller owns the SessionHandle and is responsible for calling
	// Close. The first event on a healthy session is KindOpened.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)

	// Capabilities returns static metadata about this provider's model.
	Capabilities() Capabilities
}
