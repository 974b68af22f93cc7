// Package tracing adapts OpenTelemetry to the core Tracer interface.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pedigreecore/internal/core"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "pedigreecore"

// Tracer starts an OpenTelemetry span per operation.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a tracer from tp, or from the global provider when tp is nil.
// The global provider is resolved here, so a program that exports spans must
// call otel.SetTracerProvider with an SDK provider before New; until then every
// span is a no-op.
func New(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(InstrumentationName)}
}

// Start implements core.Tracer.
func (t *Tracer) Start(ctx context.Context, operation string) (context.Context, core.TraceSpan) {
	ctx, span := t.tracer.Start(ctx, operation,
		trace.WithAttributes(attribute.String("pedigreecore.operation", operation)),
	)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
