package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope under which MeetPoint spans are
// recorded.
const tracerName = "github.com/meetpoint-app/meetpoint"

// Tracer returns the service tracer from the globally registered
// [trace.TracerProvider] that [InitProvider] installed.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span named after the operation, e.g. "venues.find" or
// "voice.start". The caller owns span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID returns the current trace ID, or "" outside a span. The
// middleware mirrors it into X-Correlation-ID, so a client-reported failure
// can be looked up directly in the trace backend.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default slog logger with trace_id and span_id attached
// when ctx carries an active span, and unchanged otherwise.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
