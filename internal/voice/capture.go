package voice

import (
	"log/slog"

	"github.com/meetpoint-app/meetpoint/pkg/audio/device"
)

// defaultFrameSize is the capture callback period in samples (256 ms at the
// 16 kHz capture rate).
const defaultFrameSize = 4096

// captureCallback builds the device callback forwarding microphone frames
// into the live session. Frames are transient: they are copied once for the
// outbound message and never buffered. A frame is dropped, counted but not
// logged, when the session is not yet ready or while reply playback is
// pending (the microphone stays muted while the assistant speaks, so the
// model never hears its own voice).
func (s *Supervisor) captureCallback(act *activeSession) device.CaptureCallback {
	return func(pcm []byte, frameCount uint32) {
		if !act.ready.Load() || act.scheduler.Pending() > 0 {
			s.metrics.FrameDropped()
			return
		}

		data := make([]byte, len(pcm))
		copy(data, pcm)

		if err := act.session.SendAudio(data); err != nil {
			slog.Warn("voice: send capture frame", "error", err)
			s.metrics.FrameDropped()
			return
		}
		s.metrics.FrameSent(len(data))
	}
}
