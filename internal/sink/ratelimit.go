package sink

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("alert rate limit exceeded")

// RateLimited caps how many alerts per minute reach the wrapped sink.
// Alerts over the limit are rejected with ErrRateLimited, never delayed.
type RateLimited struct {
	next    Sink
	limiter *rate.Limiter
}

func NewRateLimited(next Sink, perMinute int) *RateLimited {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (r *RateLimited) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	if !r.limiter.Allow() {
		return ErrRateLimited
	}
	return r.next.Deliver(ctx, level, message)
}

func (r *RateLimited) Name() string {
	return r.next.Name()
}

func (r *RateLimited) Close() {
	if c, ok := r.next.(closer); ok {
		c.Close()
	}
}
