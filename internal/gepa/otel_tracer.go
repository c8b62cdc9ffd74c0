package gepa

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func toOtelAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

// OTelTracer adapts an OpenTelemetry tracer to this package's Tracer
// interface, following the tracer-provider setup the rest of this
// codebase uses, scaled down to a local stdout exporter rather than an
// OTLP collector endpoint.
type OTelTracer struct {
	tracer oteltrace.Tracer
}

// NewOTelTracer builds a tracer provider with a stdout span exporter,
// suitable for local/dev use; serviceName identifies the run in emitted
// spans.
func NewOTelTracer(serviceName string) (*OTelTracer, func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, NewEngineError(err, "constructing stdout trace exporter")
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, nil, NewEngineError(err, "constructing otel resource")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &OTelTracer{tracer: provider.Tracer("gepa")}, provider.Shutdown, nil
}

type otelSpan struct {
	span oteltrace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(toOtelAttribute(key, value))
}

func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}
