package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

const (
	discordColorWarning  = 0xFFA500
	discordColorCritical = 0xFF0000
	discordColorInfo     = 0x808080

	// Discord rejects embed descriptions longer than this.
	discordDescriptionLimit = 4096
)

type Discord struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func NewDiscord(webhookURL string, timeout time.Duration) (*Discord, error) {
	if _, err := validateEndpoint("discord", webhookURL); err != nil {
		return nil, err
	}
	return &Discord{
		webhookURL: webhookURL,
		client:     newHTTPClient(timeout),
		now:        time.Now,
	}, nil
}

func (d *Discord) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	limit := config.MaxAlertMessageLength
	if limit <= 0 || limit > discordDescriptionLimit {
		limit = discordDescriptionLimit
	}
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{{
			Title:       "alertsub " + level.CapitalString() + " alert",
			Description: clean(message, limit),
			Color:       discordColor(level),
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return post(ctx, d.client, d.webhookURL, "application/json", body, nil)
}

func (d *Discord) Name() string {
	return "discord"
}

func discordColor(level zapcore.Level) int {
	switch {
	case level >= zapcore.ErrorLevel:
		return discordColorCritical
	case level >= zapcore.WarnLevel:
		return discordColorWarning
	default:
		return discordColorInfo
	}
}
