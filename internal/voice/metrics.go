package voice

// Metrics receives pipeline counters. Implemented by internal/observe; the
// zero-value default is a no-op so the supervisor works without wiring.
type Metrics interface {
	// SessionStarted is called when a voice session becomes active.
	SessionStarted()
	// SessionStopped is called once per completed teardown.
	SessionStopped()
	// FrameSent is called for each capture frame forwarded to the session.
	FrameSent(bytes int)
	// FrameDropped is called for each capture frame discarded by the gate.
	FrameDropped()
	// ChunkDropped is called for each undecodable or malformed reply chunk.
	ChunkDropped()
	// QueueDepth reports the current pending playback buffer count.
	QueueDepth(depth int)
}

type nopMetrics struct{}

func (nopMetrics) SessionStarted() {}
func (nopMetrics) SessionStopped() {}
func (nopMetrics) FrameSent(int)   {}
func (nopMetrics) FrameDropped()   {}
func (nopMetrics) ChunkDropped()   {}
func (nopMetrics) QueueDepth(int)  {}
