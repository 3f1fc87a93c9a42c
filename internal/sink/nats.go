package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
)

// publisher is the subset of *nats.Conn the NATS sink needs.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATS publishes each alert as a JSON message on a core NATS subject.
type NATS struct {
	conn         publisher
	subject      string
	flushTimeout time.Duration
	now          func() time.Time
}

type natsMessage struct {
	Severity  string `json:"severity"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
}

func NewNATS(natsURL, subject string) (*NATS, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("nats URL is required")
	}
	if subject == "" {
		subject = config.DefaultNATSSubject
	}
	diag := logger.Diagnostics()
	nc, err := nats.Connect(natsURL,
		nats.Name(config.GetUserAgent()),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				diag.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			diag.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return newNATSWithConn(nc, subject), nil
}

func newNATSWithConn(conn publisher, subject string) *NATS {
	timeout := config.AlertHTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultAlertHTTPTimeout
	}
	return &NATS{
		conn:         conn,
		subject:      subject,
		flushTimeout: timeout,
		now:          time.Now,
	}
}

func (n *NATS) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	data, err := json.Marshal(natsMessage{
		Severity:  severity(level),
		Level:     level.String(),
		Message:   clean(message, config.MaxAlertMessageLength),
		Timestamp: n.now().Unix(),
		Source:    "alertsub",
	})
	if err != nil {
		return fmt.Errorf("marshal nats message: %w", err)
	}
	if int64(len(data)) > config.AlertMaxPayloadSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), config.AlertMaxPayloadSize)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	// FlushWithContext rejects contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.flushTimeout)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats connection: %w", err)
	}
	return nil
}

func (n *NATS) Name() string {
	return "nats"
}

func (n *NATS) Close() {
	n.conn.Close()
}
