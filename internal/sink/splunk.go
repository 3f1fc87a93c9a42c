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

// Splunk sends each alert as an HTTP Event Collector event.
type Splunk struct {
	endpoint string
	token    string
	client   *http.Client
	host     string
	now      func() time.Time
}

type SplunkEvent struct {
	Time       int64                  `json:"time"`
	Host       string                 `json:"host,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Sourcetype string                 `json:"sourcetype,omitempty"`
	Event      map[string]interface{} `json:"event"`
}

func NewSplunk(endpoint, token string, timeout time.Duration) (*Splunk, error) {
	if _, err := validateEndpoint("splunk", endpoint); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("splunk token is required")
	}
	host, _ := os.Hostname()
	return &Splunk{
		endpoint: endpoint,
		token:    token,
		client:   newHTTPClient(timeout),
		host:     host,
		now:      time.Now,
	}, nil
}

func (s *Splunk) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	event := SplunkEvent{
		Time:       s.now().Unix(),
		Host:       s.host,
		Source:     "alertsub",
		Sourcetype: "alertsub:alert",
		Event: map[string]interface{}{
			"severity": severity(level),
			"level":    level.String(),
			"message":  clean(message, config.MaxAlertMessageLength),
		},
	}
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal Splunk event: %w", err)
	}
	return post(ctx, s.client, s.endpoint, "application/json", jsonData, map[string]string{
		"Authorization": "Splunk " + s.token,
	})
}

func (s *Splunk) Name() string {
	return "splunk"
}
