package sink

import (
	"context"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/redactor"
)

// Redacted scrubs PII from messages before they reach the wrapped sink.
// Dedup identity is computed upstream on the original text.
type Redacted struct {
	next     Sink
	redactor *redactor.Redactor
}

func NewRedacted(next Sink, r *redactor.Redactor) *Redacted {
	if r == nil {
		r = redactor.Default()
	}
	return &Redacted{next: next, redactor: r}
}

func (r *Redacted) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	return r.next.Deliver(ctx, level, r.redactor.Redact(message))
}

func (r *Redacted) Name() string {
	return r.next.Name()
}

func (r *Redacted) Close() {
	if c, ok := r.next.(closer); ok {
		c.Close()
	}
}
