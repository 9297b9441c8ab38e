package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "crypto-predictor"

var newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
}

// Spans go to stderr so they never mix with command output.
var newStdoutExporter = func() (sdktrace.SpanExporter, error) {
	return stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
}

// InitTracer configures the global tracer provider. Spans are exported only
// when asked for: TRACING_EXPORTER=stdout prints them, TRACING_EXPORTER=otlp
// or a set OTEL_EXPORTER_OTLP_ENDPOINT ships them over OTLP gRPC. Otherwise,
// or with TRACING_ENABLED=false, the provider has no exporter.
func InitTracer(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
	otelEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("TRACING_EXPORTER")))
	if mode == "" && otelEndpoint != "" {
		mode = "otlp"
	}

	if os.Getenv("TRACING_ENABLED") == "false" || mode == "" || mode == "none" {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, tp.Tracer(serviceName), nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch mode {
	case "stdout":
		exporter, err = newStdoutExporter()
	case "otlp":
		if otelEndpoint == "" {
			otelEndpoint = "localhost:4317"
		}
		exporter, err = newTraceExporter(ctx, otelEndpoint)
	default:
		return nil, nil, fmt.Errorf("unsupported TRACING_EXPORTER %q", mode)
	}
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, tp.Tracer(serviceName), nil
}
