package alerting

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

func defaultLogger() *zap.Logger {
	if l, err := zap.NewProduction(); err == nil {
		return l
	}
	return zap.NewNop()
}

type Options struct {
	// MinLevel is the least severe level that can raise an alert.
	MinLevel      zapcore.Level
	// DedupTTL is the suppression window. Zero means the default; set
	// DisableDedup to deliver every occurrence.
	DedupTTL      time.Duration
	DisableDedup  bool
	QueueSize     int
	PurgeInterval time.Duration
	// Logger receives the pipeline's own diagnostics. It must not feed back
	// into the Layer's core.
	Logger *zap.Logger
	Clock  func() time.Time
}

// DefaultOptions reads the alerting settings from internal/config.
func DefaultOptions() Options {
	level, err := zapcore.ParseLevel(config.AlertMinLevel)
	if err != nil {
		level = zapcore.WarnLevel
	}
	return Options{
		MinLevel:      level,
		DedupTTL:      config.AlertDedupTTL,
		DisableDedup:  config.AlertDedupTTL == 0,
		QueueSize:     config.AlertQueueSize,
		PurgeInterval: config.AlertPurgeInterval,
	}
}

// Layer wires the classifier, the dedup cache and the dispatcher together.
// The cache belongs to the Layer and is shared only with its dispatcher.
type Layer struct {
	classifier *Classifier
	cache      *DedupCache
	dispatcher *Dispatcher
	ttl        time.Duration
	dedup      bool
	clock      func() time.Time
	log        *zap.Logger
}

func New(deliverer Deliverer, opts Options) *Layer {
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = config.DefaultDedupTTL
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = config.DefaultQueueSize
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = config.DefaultPurgeInterval
	}
	log := opts.Logger.Named("alerting")
	cache := NewDedupCache()
	return &Layer{
		classifier: NewClassifier(opts.MinLevel),
		cache:      cache,
		dispatcher: NewDispatcher(deliverer, cache, DispatcherOptions{
			QueueSize:     opts.QueueSize,
			PurgeInterval: opts.PurgeInterval,
			Logger:        log,
			Clock:         opts.Clock,
		}),
		ttl:   opts.DedupTTL,
		dedup: !opts.DisableDedup,
		clock: opts.Clock,
		log:   log,
	}
}

func (l *Layer) Enabled(level zapcore.Level) bool {
	return l.classifier.Enabled(level)
}

// Observe runs one event through the pipeline. It never blocks on delivery.
func (l *Layer) Observe(level zapcore.Level, fields ...Field) Outcome {
	return l.observe(l.classifier.Classify(level, fields))
}

func (l *Layer) observe(rec *AlertRecord) Outcome {
	outcome := l.admit(rec)
	if outcome != OutcomeFiltered && outcome != OutcomeNotAlert {
		recordOutcome(outcome)
	}
	return outcome
}

func (l *Layer) admit(rec *AlertRecord) Outcome {
	if rec == nil {
		return OutcomeFiltered
	}
	if !rec.IsAlert() {
		return OutcomeNotAlert
	}
	if l.dedup && !l.cache.Admit(rec.IdentityHash(), l.clock(), l.ttl) {
		return OutcomeSuppressed
	}
	if !l.dispatcher.Submit(rec) {
		return OutcomeDroppedBackpressure
	}
	return OutcomeEnqueued
}

// Core returns a zapcore.Core that feeds every enabled entry into the Layer.
// Tee it next to the regular output core.
func (l *Layer) Core() zapcore.Core {
	return &alertCore{layer: l}
}

// Handler returns a slog.Handler front end for the same pipeline.
func (l *Layer) Handler() slog.Handler {
	return &slogHandler{layer: l}
}

func (l *Layer) CacheLen() int {
	return l.cache.Len()
}

// Close stops accepting alerts and waits for queued ones to be delivered.
func (l *Layer) Close(ctx context.Context) error {
	if err := l.dispatcher.Close(ctx); err != nil {
		l.log.Warn("Alert queue not drained before shutdown deadline", zap.Error(err))
		return err
	}
	return nil
}
