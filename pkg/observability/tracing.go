package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for netnotes spans.
const TracerName = "netnotes"

// Span attribute keys
const (
	AttrSessionID  = "session_id"
	AttrPersonID   = "person_id"
	AttrIsNew      = "is_new"
	AttrNameRule   = "name_rule"
	AttrConfidence = "confidence"
	AttrTypedGeo   = "typed_geo"
	AttrPrompt     = "prompt"
	AttrErrorCode  = "error_code"
	AttrRetryable  = "retryable"
)

// Span names
const (
	SpanCaptureStart    = "capture.start"
	SpanCaptureCommit   = "capture.commit"
	SpanLocationResolve = "capture.location_resolve"
	SpanUpsertByName    = "people.upsert_by_name"
)

// Tracer wraps the OpenTelemetry tracer used across packages.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// Start starts a span with the given attributes.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		// non-recording span; never hand back the caller's span to End
		return ctx, trace.SpanFromContext(context.Background())
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error, code string, retryable bool) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrRetryable, retryable),
	)
	span.RecordError(err)
}

// RecordSuccess marks span as successful.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
