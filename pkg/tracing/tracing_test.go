package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "false")
	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil || tracer == nil {
		t.Fatal("expected tracer provider")
	}
}

func TestInitTracerEnabledWithStubExporter(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()

	stub := &stubExporter{}
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		stub.endpoint = endpoint
		return stub, nil
	}

	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected tracer")
	}
	if stub.endpoint != "collector:4317" {
		t.Fatalf("expected endpoint to be propagated, got %s", stub.endpoint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracerStdoutExporter(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "stdout")

	origOTLP, origStdout := newTraceExporter, newStdoutExporter
	defer func() { newTraceExporter, newStdoutExporter = origOTLP, origStdout }()

	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		t.Fatal("OTLP exporter should not be used")
		return nil, nil
	}
	used := false
	newStdoutExporter = func() (sdktrace.SpanExporter, error) {
		used = true
		return &stubExporter{}, nil
	}

	tp, _, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !used {
		t.Fatal("expected stdout exporter")
	}
	_ = tp.Shutdown(context.Background())
}

func TestInitTracerExporterError(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return nil, errors.New("dial failed")
	}

	if _, _, err := InitTracer(context.Background()); err == nil {
		t.Fatal("expected exporter error")
	}
}

func TestInitTracerDefaultsToNoExporter(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("TRACING_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	origOTLP, origStdout := newTraceExporter, newStdoutExporter
	defer func() { newTraceExporter, newStdoutExporter = origOTLP, origStdout }()
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		t.Fatal("no OTLP exporter expected without configuration")
		return nil, nil
	}
	newStdoutExporter = func() (sdktrace.SpanExporter, error) {
		t.Fatal("no stdout exporter expected without configuration")
		return nil, nil
	}

	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil || tracer == nil {
		t.Fatal("expected tracer provider")
	}

	start := time.Now()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("shutdown without an exporter should return immediately")
	}
}

func TestInitTracerOTLPWithoutEndpointUsesLocalhost(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()
	stub := &stubExporter{}
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		stub.endpoint = endpoint
		return stub, nil
	}

	tp, _, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.endpoint != "localhost:4317" {
		t.Fatalf("expected localhost:4317, got %s", stub.endpoint)
	}
	_ = tp.Shutdown(context.Background())
}

func TestInitTracerUnknownExporter(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("TRACING_EXPORTER", "zipkin")

	if _, _, err := InitTracer(context.Background()); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

type stubExporter struct {
	endpoint string
}

func (s *stubExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (s *stubExporter) Shutdown(ctx context.Context) error {
	return nil
}
