// Package apm provides tracing helpers over OpenTelemetry.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans and resolves them from contexts.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
	GetTracer() trace.Tracer
}

// Span wraps an OTEL span.
type Span interface {
	SetAttributes(values ...attribute.KeyValue)
	AddEvent(name string, options ...trace.EventOption)
	NoticeError(err error)
	RecordError(err error, options ...trace.EventOption)
	SetStatus(code codes.Code, description string)
	SetName(name string)
	IsRecording() bool
	SpanContext() trace.SpanContext
	End(options ...trace.SpanEndOption)
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer bound to the global provider.
func NewTracer(name string) Tracer {
	return &openTracer{tracer: otel.Tracer(name)}
}

func (t *openTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &traceSpan{span}
}

func (t *openTracer) SpanFromContext(ctx context.Context) Span {
	return &traceSpan{trace.SpanFromContext(ctx)}
}

func (t *openTracer) GetTracer() trace.Tracer {
	return t.tracer
}

type traceSpan struct {
	span trace.Span
}

func (s *traceSpan) SetAttributes(values ...attribute.KeyValue) {
	s.span.SetAttributes(values...)
}

func (s *traceSpan) AddEvent(name string, options ...trace.EventOption) {
	s.span.AddEvent(name, options...)
}

// NoticeError records the error and marks the span failed.
func (s *traceSpan) NoticeError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *traceSpan) RecordError(err error, options ...trace.EventOption) {
	s.span.RecordError(err, options...)
}

func (s *traceSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

func (s *traceSpan) SetName(name string) {
	s.span.SetName(name)
}

func (s *traceSpan) IsRecording() bool {
	return s.span.IsRecording()
}

func (s *traceSpan) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

func (s *traceSpan) End(options ...trace.SpanEndOption) {
	s.span.End(options...)
}
