package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	spanAttrError           = "error"
	defaultErrorDescription = "operation failed"
)

// TracingCollector implements loadtest.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector that starts its spans from tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the context that holds it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, loadtest.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &SpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span. An "error" attribute becomes the
// description of an error status.
// Spans not started by a TracingCollector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx loadtest.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	description := attrs[spanAttrError]
	if description == "" {
		description = defaultErrorDescription
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.setStatus(status, description)
	otelSpanCtx.span.End()
}

var _ loadtest.TracingCollector = (*TracingCollector)(nil)

// SpanContext wraps an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps loadtest.StatusSuccess to codes.Ok and loadtest.StatusError to codes.Error.
// Any other value is kept as a "status" attribute.
func (s *SpanContext) SetStatus(status string) {
	s.setStatus(status, defaultErrorDescription)
}

func (s *SpanContext) setStatus(status, errorDescription string) {
	switch status {
	case loadtest.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case loadtest.StatusError:
		s.span.SetStatus(codes.Error, errorDescription)
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute adds a string attribute to the span.
func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ loadtest.SpanContext = (*SpanContext)(nil)
