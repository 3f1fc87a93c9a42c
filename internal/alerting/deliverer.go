package alerting

import (
	"context"

	"go.uber.org/zap/zapcore"
)

// Deliverer sends one formatted alert somewhere. The Dispatcher never calls
// Deliver concurrently, so implementations need not be goroutine safe. A
// returned error is final for that alert. Deliver may block; bounding that is
// up to the implementation.
type Deliverer interface {
	Deliver(ctx context.Context, level zapcore.Level, message string) error
}

type DelivererFunc func(ctx context.Context, level zapcore.Level, message string) error

func (f DelivererFunc) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	return f(ctx, level, message)
}

// deliveryName returns the sink name used in logs, when the deliverer has one.
func deliveryName(d Deliverer) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "deliverer"
}
