package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
	"github.com/podtrace/alertsub/internal/metricsexporter"
	"github.com/podtrace/alertsub/internal/tracing"
)

// pipeline owns everything a command starts and must stop in reverse order.
type pipeline struct {
	layer   *alerting.Layer
	sink    Sink
	metrics *metricsexporter.Server
	tracing *tracing.Manager
}

func startPipeline(ctx context.Context, opts alerting.Options) (*pipeline, error) {
	if enableTracing {
		config.TracingEnabled = true
	}
	tm, err := tracing.NewManager(ctx)
	if err != nil {
		logger.Warn("Failed to create tracing manager", zap.Error(err))
		tm = nil
	}

	s, err := sinkFactory()
	if err != nil {
		shutdownTracing(tm)
		return nil, fmt.Errorf("failed to configure sinks: %w", err)
	}

	p := &pipeline{sink: s, tracing: tm}

	metricsexporter.RecordBuildInfo(config.GetVersion())
	if named, ok := s.(interface{ Names() []string }); ok {
		metricsexporter.RecordSinks(named.Names()...)
	} else {
		metricsexporter.RecordSinks(s.Name())
	}
	if enableMetrics {
		srv, err := metricsexporter.StartServer()
		if err != nil {
			shutdownTracing(tm)
			return nil, err
		}
		p.metrics = srv
	}

	p.layer = alerting.New(s, opts)
	logger.Attach(p.layer.Core())

	logger.Info("Alert pipeline started",
		zap.String("sink", s.Name()),
		zap.Stringer("min_level", opts.MinLevel),
		zap.Duration("dedup_ttl", opts.DedupTTL),
		zap.Bool("dedup_disabled", opts.DisableDedup),
		zap.Int("queue_size", opts.QueueSize))
	return p, nil
}

// shutdown detaches the alert core and drains the queue, bounded by the
// configured shutdown timeout.
func (p *pipeline) shutdown() error {
	logger.Detach()
	if p.metrics != nil {
		p.metrics.MarkDraining()
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	err := p.layer.Close(ctx)

	if c, ok := p.sink.(interface{ Close() }); ok {
		c.Close()
	}
	shutdownTracing(p.tracing)
	if p.metrics != nil {
		p.metrics.Shutdown()
	}
	return err
}

func shutdownTracing(tm *tracing.Manager) {
	if tm == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	_ = tm.Shutdown(ctx)
}
