package sink

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log writes alerts to a zap logger. The logger must not be one the alert
// core is attached to, or every delivery would be observed again.
type Log struct {
	logger *zap.Logger
}

func NewLog(l *zap.Logger) *Log {
	if l == nil {
		l = zap.NewNop()
	}
	return &Log{logger: l}
}

func (l *Log) Deliver(_ context.Context, level zapcore.Level, message string) error {
	if ce := l.logger.Check(level, "Alert"); ce != nil {
		ce.Write(zap.String("alert_message", message), zap.String("severity", severity(level)))
	}
	return nil
}

func (l *Log) Name() string {
	return "log"
}
