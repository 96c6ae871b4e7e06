// Package audio provides the PCM codec and frame types used by the realtime
// conversation pipeline.
//
// The streaming endpoint consumes 16 kHz mono 16-bit PCM and produces 24 kHz
// mono 16-bit PCM. Audio travels over the wire base64-encoded inside realtime
// media messages; this package owns both the transport encoding and the
// conversions between native float samples and the wire PCM format.
package audio

import "time"

// Sample rates of the realtime conversation pipeline.
const (
	// CaptureRate is the sample rate of outbound microphone audio in Hz.
	CaptureRate = 16000

	// PlaybackRate is the sample rate of inbound assistant audio in Hz.
	PlaybackRate = 24000
)

// Frame represents a single frame of audio data flowing through the pipeline.
// Frames are the atomic unit of audio transport — captured from the input
// device, encoded onto the session, or decoded from an inbound chunk and
// handed to the playback scheduler.
type Frame struct {
	// Data holds little-endian 16-bit PCM samples, interleaved per channel.
	Data []byte

	// SampleRate in Hz (16000 for capture, 24000 for playback).
	SampleRate int

	// Channels: 1 for mono. The pipeline is mono end to end, but decoded
	// frames carry the count so duration math stays honest.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns how long the frame takes to play at its sample rate.
// Returns zero for frames with an unset rate or channel count.
func (f Frame) Duration() time.Duration {
	return PCMDuration(len(f.Data), f.SampleRate, f.Channels)
}

// PCMDuration returns the playback duration of byteLen bytes of interleaved
// 16-bit PCM at the given sample rate and channel count.
func PCMDuration(byteLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := byteLen / 2 / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
