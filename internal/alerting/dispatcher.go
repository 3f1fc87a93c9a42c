package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/podtrace/alertsub/internal/alerting"

type DispatcherOptions struct {
	QueueSize     int
	PurgeInterval time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Dispatcher owns the bounded hand-off queue and the single worker that
// delivers queued alerts in order and purges the dedup cache on a timer.
type Dispatcher struct {
	deliverer Deliverer
	cache     *DedupCache
	queue     chan *AlertRecord
	log       *zap.Logger
	clock     func() time.Time
	tracer    trace.Tracer
	interval  time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher starts the worker goroutine. It runs until Close.
func NewDispatcher(deliverer Deliverer, cache *DedupCache, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	d := &Dispatcher{
		deliverer: deliverer,
		cache:     cache,
		queue:     make(chan *AlertRecord, opts.QueueSize),
		log:       opts.Logger.Named("dispatcher"),
		clock:     opts.Clock,
		tracer:    otel.Tracer(tracerName),
		interval:  opts.PurgeInterval,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit hands rec to the worker without blocking. It returns false, after
// logging a warning, when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(rec *AlertRecord) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("Alert dispatcher closed, dropping alert",
			zap.Stringer("level", rec.Level()),
			zap.String("message", rec.Message()))
		return false
	}
	select {
	case d.queue <- rec:
		queueDepthGauge.Set(float64(len(d.queue)))
		return true
	default:
		d.log.Warn("Alert queue full, dropping alert",
			zap.Stringer("level", rec.Level()),
			zap.String("message", rec.Message()),
			zap.Int("capacity", cap(d.queue)))
		return false
	}
}

// Close stops accepting alerts and waits for the worker to deliver what is
// already queued. It returns ctx.Err() if that takes longer than ctx allows;
// the worker keeps draining in the background in that case.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case rec, ok := <-d.queue:
			if !ok {
				return
			}
			queueDepthGauge.Set(float64(len(d.queue)))
			d.deliver(rec)
		case <-ticker.C:
			d.purge()
		}
	}
}

func (d *Dispatcher) purge() {
	removed := d.cache.Purge(d.clock())
	cachePurgedCounter.Add(float64(removed))
	cacheEntriesGauge.Set(float64(d.cache.Len()))
	if removed > 0 {
		d.log.Debug("Purged expired dedup entries", zap.Int("removed", removed))
	}
}

func (d *Dispatcher) deliver(rec *AlertRecord) {
	ctx, span := d.tracer.Start(context.Background(), "alerting.deliver",
		trace.WithAttributes(
			attribute.String("alert.level", rec.Level().String()),
			attribute.String("alert.sink", deliveryName(d.deliverer)),
		))
	defer span.End()

	start := time.Now()
	err := d.safeDeliver(ctx, rec)
	deliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		deliveriesCounter.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Error("Failed to deliver alert",
			zap.String("sink", deliveryName(d.deliverer)),
			zap.Stringer("level", rec.Level()),
			zap.String("message", rec.Message()),
			zap.Error(err))
		return
	}
	deliveriesCounter.WithLabelValues("delivered").Inc()
}

func (d *Dispatcher) safeDeliver(ctx context.Context, rec *AlertRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in deliverer: %v", r)
		}
	}()
	return d.deliverer.Deliver(ctx, rec.Level(), rec.FormattedMessage())
}
