package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

type Webhook struct {
	url    string
	client *http.Client
	host   string
	now    func() time.Time
}

type webhookPayload struct {
	Severity  string `json:"severity"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Host      string `json:"host,omitempty"`
}

func NewWebhook(webhookURL string, timeout time.Duration) (*Webhook, error) {
	if _, err := validateEndpoint("webhook", webhookURL); err != nil {
		return nil, err
	}
	host, _ := os.Hostname()
	return &Webhook{
		url:    webhookURL,
		client: newHTTPClient(timeout),
		host:   host,
		now:    time.Now,
	}, nil
}

func (w *Webhook) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	payload := webhookPayload{
		Severity:  severity(level),
		Level:     level.String(),
		Message:   clean(message, config.MaxAlertMessageLength),
		Timestamp: w.now().UTC().Format(time.RFC3339),
		Source:    "alertsub",
		Host:      w.host,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return post(ctx, w.client, w.url, "application/json", jsonData, nil)
}

func (w *Webhook) Name() string {
	return "webhook"
}
