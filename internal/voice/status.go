package voice

import "encoding/json"

// Status is the lifecycle state of the voice conversation.
//
// Valid transitions:
//
//	INACTIVE → CONNECTING            (Start)
//	CONNECTING → LISTENING           (session opened)
//	LISTENING → THINKING             (user turn complete)
//	THINKING/LISTENING → SPEAKING    (first reply audio chunk)
//	SPEAKING → LISTENING             (playback queue drained or interrupted)
//	any → INACTIVE                   (stop, transport closed, or error)
type Status int

const (
	StatusInactive Status = iota
	StatusConnecting
	StatusListening
	StatusThinking
	StatusSpeaking
)

// String returns the canonical upper-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusConnecting:
		return "CONNECTING"
	case StatusListening:
		return "LISTENING"
	case StatusThinking:
		return "THINKING"
	case StatusSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the status as its canonical name so API clients never
// see the numeric representation.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
