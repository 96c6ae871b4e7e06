// Package device abstracts the platform audio subsystem: microphone capture
// and speaker playback at fixed sample rates.
//
// The production implementation sits on miniaudio via gen2brain/malgo. Tests
// use [Fake], which feeds canned PCM through the same interfaces. All devices
// deliver and consume little-endian 16-bit PCM.
package device

// CaptureCallback receives one fixed-size frame of captured PCM. It runs on
// the device's audio thread; implementations must not block.
type CaptureCallback func(pcm []byte, frameCount uint32)

// CaptureConfig describes the capture stream to open.
type CaptureConfig struct {
	// SampleRate in Hz.
	SampleRate int

	// Channels to capture. The conversation pipeline uses 1.
	Channels int

	// FrameSize is the number of samples delivered per callback. Every
	// callback carries exactly this many frames.
	FrameSize int
}

// PlaybackConfig describes the playback stream to open.
type PlaybackConfig struct {
	SampleRate int
	Channels   int
}

// Context owns the platform audio backend. Open devices stay valid until the
// context is closed; close all devices before closing the context.
type Context interface {
	// OpenCapture initialises a capture device that invokes cb for every
	// captured frame once started.
	OpenCapture(cfg CaptureConfig, cb CaptureCallback) (CaptureDevice, error)

	// OpenPlayback initialises a playback device.
	OpenPlayback(cfg PlaybackConfig) (PlaybackDevice, error)

	// Close releases the backend. Idempotent.
	Close() error
}

// CaptureDevice is a started/stopped microphone stream.
type CaptureDevice interface {
	Start() error
	Stop() error

	// Close releases the device. Stops it first if still running. Idempotent.
	Close() error
}

// PlaybackDevice drains queued PCM to the speaker. Writes are buffered; the
// device consumes them at its own pace.
type PlaybackDevice interface {
	Start() error

	// Write queues PCM bytes for output. Never blocks on the audio clock.
	Write(pcm []byte) error

	// Reset discards all queued but not yet played PCM.
	Reset()

	// Close releases the device. Idempotent.
	Close() error
}
