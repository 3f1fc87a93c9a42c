package tracing

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/podtrace/alertsub/internal/config"
)

func TestNewManager_Disabled(t *testing.T) {
	original := config.TracingEnabled
	config.TracingEnabled = false
	defer func() { config.TracingEnabled = original }()

	m, err := NewManager(context.Background())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Enabled() {
		t.Error("manager should be disabled")
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled manager error = %v", err)
	}
}

func TestNewManager_Enabled(t *testing.T) {
	original, originalEndpoint := config.TracingEnabled, config.OTLPEndpoint
	config.TracingEnabled = true
	config.OTLPEndpoint = "127.0.0.1:1"
	defer func() {
		config.TracingEnabled = original
		config.OTLPEndpoint = originalEndpoint
	}()

	m, err := NewManager(context.Background())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if !m.Enabled() {
		t.Fatal("manager should be enabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.Shutdown(ctx)
}

func TestManager_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	m, err := newManager(context.Background(), sdktrace.WithSyncer(exporter), 1.0)
	if err != nil {
		t.Fatalf("newManager() error = %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "alerting.deliver")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "alerting.deliver" {
		t.Fatalf("expected one recorded span, got %+v", spans)
	}
	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != serviceName {
		t.Errorf("service.name = %q", service)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestManager_ZeroSampleRate(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	m, err := newManager(context.Background(), sdktrace.WithSyncer(exporter), 0)
	if err != nil {
		t.Fatalf("newManager() error = %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	_, span := otel.Tracer("test").Start(context.Background(), "dropped")
	span.End()
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("expected no spans at rate 0, got %d", n)
	}
}

func TestClampRate(t *testing.T) {
	if clampRate(-1) != 0 || clampRate(2) != 1 || clampRate(0.25) != 0.25 {
		t.Error("clampRate out of range")
	}
}
