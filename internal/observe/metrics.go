// Package observe provides application-wide observability primitives for
// MeetPoint: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all MeetPoint metrics.
const meterName = "github.com/meetpoint-app/meetpoint"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// LLMDuration tracks text-model request latency. Use with attribute:
	//   attribute.String("op", "venue_search"|"chat")
	LLMDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// VoiceSessions counts started voice sessions.
	VoiceSessions metric.Int64Counter

	// FramesSent counts microphone frames forwarded to the live provider.
	FramesSent metric.Int64Counter

	// AudioBytesSent counts microphone bytes forwarded to the live provider.
	AudioBytesSent metric.Int64Counter

	// FramesDropped counts microphone frames discarded by the capture gate
	// or lost on send failure.
	FramesDropped metric.Int64Counter

	// ChunksDropped counts malformed reply audio chunks discarded before
	// playback.
	ChunksDropped metric.Int64Counter

	// LLMErrors counts failed text-model requests. Use with attribute:
	//   attribute.String("op", ...)
	LLMErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveVoiceSessions tracks whether a voice session is live (0 or 1).
	ActiveVoiceSessions metric.Int64UpDownCounter

	// PlaybackQueueDepth tracks the number of reply chunks awaiting playback.
	PlaybackQueueDepth metric.Int64Gauge
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// model round trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.LLMDuration, err = m.Float64Histogram("meetpoint.llm.duration",
		metric.WithDescription("Latency of text-model requests by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("meetpoint.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.VoiceSessions, err = m.Int64Counter("meetpoint.voice.sessions",
		metric.WithDescription("Total voice sessions started."),
	); err != nil {
		return nil, err
	}
	if met.FramesSent, err = m.Int64Counter("meetpoint.voice.frames_sent",
		metric.WithDescription("Microphone frames forwarded to the live provider."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytesSent, err = m.Int64Counter("meetpoint.voice.audio_bytes_sent",
		metric.WithDescription("Microphone bytes forwarded to the live provider."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("meetpoint.voice.frames_dropped",
		metric.WithDescription("Microphone frames discarded by the capture gate or on send failure."),
	); err != nil {
		return nil, err
	}
	if met.ChunksDropped, err = m.Int64Counter("meetpoint.voice.chunks_dropped",
		metric.WithDescription("Malformed reply audio chunks discarded before playback."),
	); err != nil {
		return nil, err
	}
	if met.LLMErrors, err = m.Int64Counter("meetpoint.llm.errors",
		metric.WithDescription("Failed text-model requests by operation."),
	); err != nil {
		return nil, err
	}

	// Gauges.
	if met.ActiveVoiceSessions, err = m.Int64UpDownCounter("meetpoint.voice.active_sessions",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}
	if met.PlaybackQueueDepth, err = m.Int64Gauge("meetpoint.voice.playback_queue_depth",
		metric.WithDescription("Reply chunks currently awaiting playback."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordLLMRequest records the latency of a completed text-model request.
func (m *Metrics) RecordLLMRequest(ctx context.Context, op string, seconds float64) {
	m.LLMDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("op", op)),
	)
}

// RecordLLMError records a failed text-model request.
func (m *Metrics) RecordLLMError(ctx context.Context, op string) {
	m.LLMErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
