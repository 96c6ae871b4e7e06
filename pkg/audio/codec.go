package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedAudio reports a PCM byte sequence whose length does not divide
// evenly into whole sample frames. Chunks failing this check are dropped by
// the playback pipeline; the session itself keeps running.
var ErrMalformedAudio = errors.New("audio: malformed PCM data")

// EncodeTransport encodes raw bytes into the text-safe form embedded in
// realtime media messages. Round-trips exactly through [DecodeTransport] for
// every byte sequence, including the empty one.
func EncodeTransport(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeTransport is the inverse of [EncodeTransport]. It returns an error
// for input that is not valid transport text.
func DecodeTransport(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("audio: decode transport text: %w", err)
	}
	return b, nil
}

// Float32ToPCM16 converts float samples to little-endian 16-bit PCM. Each
// sample is scaled by 32768 and truncated toward zero. Samples outside
// [-1.0, 1.0] are NOT clamped: the narrowing conversion wraps (1.0 becomes
// -32768). Capture sources are expected to stay in range; anything louder is
// already clipped garbage and wrapping it keeps the conversion branch-free.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(int32(s * 32768))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// PCM16ToFloat32 reinterprets data as interleaved little-endian 16-bit PCM,
// de-interleaves it per channel, and rescales each sample to [-1.0, 1.0) by
// dividing by 32768. The result holds one sample slice per channel, each of
// length len(data)/2/channels.
//
// Returns [ErrMalformedAudio] when the byte length does not divide evenly
// into whole frames of the given channel count.
func PCM16ToFloat32(data []byte, channels int) ([][]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("audio: invalid channel count %d", channels)
	}
	if len(data)%(2*channels) != 0 {
		return nil, fmt.Errorf("%w: %d bytes do not divide into %d-channel frames",
			ErrMalformedAudio, len(data), channels)
	}

	frames := len(data) / 2 / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := range frames {
		for ch := range channels {
			s := int16(binary.LittleEndian.Uint16(data[(i*channels+ch)*2:]))
			out[ch][i] = float32(s) / 32768
		}
	}
	return out, nil
}
