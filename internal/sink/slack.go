package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

type Slack struct {
	webhookURL string
	channel    string
	client     *http.Client
	now        func() time.Time
}

type SlackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title,omitempty"`
	Text      string       `json:"text,omitempty"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
	MrkdwnIn  []string     `json:"mrkdwn_in,omitempty"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func NewSlack(webhookURL, channel string, timeout time.Duration) (*Slack, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL is required")
	}
	parsedURL, err := url.Parse(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid slack webhook URL: %w", err)
	}
	if parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("slack webhook URL must use https scheme")
	}
	if !strings.HasSuffix(parsedURL.Hostname(), "hooks.slack.com") {
		return nil, fmt.Errorf("invalid slack webhook URL format")
	}
	if channel == "" {
		channel = config.DefaultSlackChannel
	}
	return &Slack{
		webhookURL: webhookURL,
		channel:    channel,
		client:     newHTTPClient(timeout),
		now:        time.Now,
	}, nil
}

func (s *Slack) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	payload := SlackPayload{
		Channel: s.channel,
		Attachments: []SlackAttachment{{
			Color: slackColor(level),
			Title: "alertsub " + level.CapitalString() + " alert",
			Text:  clean(message, config.MaxAlertMessageLength),
			Fields: []SlackField{
				{Title: "Severity", Value: severity(level), Short: true},
				{Title: "Level", Value: level.String(), Short: true},
			},
			Footer:    "alertsub",
			Timestamp: s.now().Unix(),
			MrkdwnIn:  []string{"text", "fields"},
		}},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}
	return post(ctx, s.client, s.webhookURL, "application/json", jsonData, nil)
}

func (s *Slack) Name() string {
	return "slack"
}

func slackColor(level zapcore.Level) string {
	switch {
	case level >= zapcore.ErrorLevel:
		return "danger"
	case level >= zapcore.WarnLevel:
		return "warning"
	default:
		return "#808080"
	}
}
