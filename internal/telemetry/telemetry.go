// Package telemetry wires OpenTelemetry tracing and metrics for the AI
// gateway calls. Exporters are configured from the standard OTEL_* env vars.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "quiz-ai/internal/telemetry"

// Instruments holds the instruments used around gateway calls.
type Instruments struct {
	Tracer trace.Tracer

	GatewayRequests metric.Int64Counter
	GatewayDuration metric.Float64Histogram
	Generations     metric.Int64Counter
}

// Init installs OTLP HTTP trace and metric providers as the globals.
// The returned shutdown flushes both and must be called on exit.
func Init(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
		)
	}
	return shutdown, nil
}

// NewInstruments creates instruments from the global providers. Before Init
// (or when telemetry is disabled) these are no-ops.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(scopeName)

	requests, err := meter.Int64Counter("ai.gateway.requests",
		metric.WithDescription("Chat completion calls by outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("ai.gateway.duration",
		metric.WithDescription("Chat completion latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	generations, err := meter.Int64Counter("questions.generated",
		metric.WithDescription("Questions returned to callers"),
		metric.WithUnit("{question}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:          otel.Tracer(scopeName),
		GatewayRequests: requests,
		GatewayDuration: duration,
		Generations:     generations,
	}, nil
}
