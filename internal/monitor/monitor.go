// Package monitor provides best-effort telemetry sinks. Nothing here may
// fail the request path: every method is fire-and-forget.
package monitor

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
)

// OtelMonitor records events and metrics as span events on the current
// trace, mirroring them to the structured log.
type OtelMonitor struct{}

var _ interfaces.Monitor = (*OtelMonitor)(nil)

func NewOtelMonitor() *OtelMonitor {
	return &OtelMonitor{}
}

func (m *OtelMonitor) RecordEvent(ctx context.Context, name string, attrs map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
	}
	args := make([]any, 0, len(attrs)*2+2)
	args = append(args, "event", name)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	logger.Debug(ctx, "Telemetry event", args...)
}

func (m *OtelMonitor) RecordMetric(ctx context.Context, name string, value float64, attrs map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		kvs := append(toAttributes(attrs), attribute.Float64("value", value))
		span.AddEvent("metric:"+name, trace.WithAttributes(kvs...))
	}
}

func toAttributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return kvs
}

// Noop discards all telemetry.
type Noop struct{}

var _ interfaces.Monitor = (*Noop)(nil)

func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordEvent(context.Context, string, map[string]string)           {}
func (Noop) RecordMetric(context.Context, string, float64, map[string]string) {}
