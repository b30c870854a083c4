// Package otelhelper provides distributed tracing functionality for flow nodes.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Common attribute keys.
	FlowNameKey  = "weatherflow.flow.name"
	NodeIDKey    = "weatherflow.node.id"
	NodeTypeKey  = "weatherflow.node.type"
	MessageIDKey = "weatherflow.message.id"
	FetchURLKey  = "weatherflow.fetch.url"
)

// TracerProvider pairs a tracer with the shutdown hook of the provider behind it.
type TracerProvider struct {
	Tracer   trace.Tracer
	Shutdown func(ctx context.Context) error
}

// NewTracer installs an OTLP/HTTP exporting provider as the global one.
// Exporter endpoints come from the standard OTEL_EXPORTER_OTLP_* environment variables.
func NewTracer(ctx context.Context, serviceName string) (*TracerProvider, error) {
	provider, err := newTracerProvider(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	return &TracerProvider{
		Tracer:   provider.Tracer(serviceName),
		Shutdown: provider.Shutdown,
	}, nil
}

// GlobalTracer returns a tracer from the globally installed provider, a no-op one by default.
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func GlobalTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// nolint:ireturn,spancheck // Returning interface is intentional for OpenTelemetry tracing
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}
