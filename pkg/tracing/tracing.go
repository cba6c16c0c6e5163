// Package tracing wraps an OpenTelemetry tracer for the pipeline's
// per-stage spans, accepted as an explicit collaborator instead of a
// package-global provider.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer starts one span per pipeline stage. The zero value (from
// NoopTracer) is always safe to use.
type Tracer struct {
	tr trace.Tracer
}

// New wraps an OpenTelemetry tracer obtained by the caller, typically
// via otel.Tracer("github.com/waczpack/waczpack/pkg/wacz").
func New(tr trace.Tracer) Tracer { return Tracer{tr: tr} }

// NoopTracer returns a Tracer whose spans are the OpenTelemetry no-op
// implementation, used when the caller configures no tracer provider.
func NoopTracer() Tracer { return Tracer{tr: noop.NewTracerProvider().Tracer("noop")} }

// Start begins a span named name, returning the derived context and the
// span to End via defer.
func (t Tracer) Start(ctx context.Context, name string, attrs ...trace.SpanStartOption) (context.Context, trace.Span) {
	tr := t.tr
	if tr == nil {
		tr = noop.NewTracerProvider().Tracer("noop")
	}

	return tr.Start(ctx, name, attrs...)
}
