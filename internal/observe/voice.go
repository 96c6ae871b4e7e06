package observe

import (
	"context"

	"github.com/meetpoint-app/meetpoint/internal/voice"
)

// VoiceRecorder adapts [Metrics] to the callback interface the voice
// supervisor reports through. Sessions are assumed to be recorded from a
// single supervisor, so ActiveVoiceSessions moves between 0 and 1.
type VoiceRecorder struct {
	m *Metrics
}

var _ voice.Metrics = (*VoiceRecorder)(nil)

// NewVoiceRecorder returns a recorder writing to m.
func NewVoiceRecorder(m *Metrics) *VoiceRecorder {
	return &VoiceRecorder{m: m}
}

func (r *VoiceRecorder) SessionStarted() {
	ctx := context.Background()
	r.m.VoiceSessions.Add(ctx, 1)
	r.m.ActiveVoiceSessions.Add(ctx, 1)
}

func (r *VoiceRecorder) SessionStopped() {
	r.m.ActiveVoiceSessions.Add(context.Background(), -1)
}

func (r *VoiceRecorder) FrameSent(bytes int) {
	ctx := context.Background()
	r.m.FramesSent.Add(ctx, 1)
	r.m.AudioBytesSent.Add(ctx, int64(bytes))
}

func (r *VoiceRecorder) FrameDropped() {
	r.m.FramesDropped.Add(context.Background(), 1)
}

func (r *VoiceRecorder) ChunkDropped() {
	r.m.ChunksDropped.Add(context.Background(), 1)
}

func (r *VoiceRecorder) QueueDepth(depth int) {
	r.m.PlaybackQueueDepth.Record(context.Background(), int64(depth))
}
