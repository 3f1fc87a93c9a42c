// Package tracing installs the OpenTelemetry tracer provider that the alert
// dispatcher's delivery spans are recorded against.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
)

const serviceName = "alertsub"

type Manager struct {
	enabled bool
	tp      *sdktrace.TracerProvider
}

// NewManager returns a disabled manager unless tracing is enabled in the
// environment. When enabled it becomes the global tracer provider.
func NewManager(ctx context.Context) (*Manager, error) {
	if !config.TracingEnabled {
		return &Manager{enabled: false}, nil
	}

	endpoint := config.OTLPEndpoint
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	m, err := newManager(ctx, sdktrace.WithBatcher(exp), config.TracingSampleRate)
	if err != nil {
		return nil, err
	}
	logger.Info("Tracing enabled",
		zap.String("endpoint", endpoint),
		zap.Float64("sample_rate", config.TracingSampleRate))
	return m, nil
}

func newManager(ctx context.Context, processor sdktrace.TracerProviderOption, sampleRate float64) (*Manager, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(config.GetVersion()),
			attribute.String("alertsub.component", "dispatcher"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRate(sampleRate)))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Manager{enabled: true, tp: tp}, nil
}

func (m *Manager) Enabled() bool {
	return m.enabled
}

// Shutdown flushes pending spans.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.enabled || m.tp == nil {
		return nil
	}
	if err := m.tp.Shutdown(ctx); err != nil {
		logger.Warn("Failed to shutdown tracer provider", zap.Error(err))
		return err
	}
	return nil
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	default:
		return rate
	}
}
