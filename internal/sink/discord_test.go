package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestDiscord_Deliver(t *testing.T) {
	server, reqs := newCaptureServer(t, http.StatusNoContent)
	d, err := NewDiscord(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewDiscord() error = %v", err)
	}
	d.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	if err := d.Deliver(context.Background(), zapcore.ErrorLevel, "ERROR: disk full"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	var payload discordWebhookPayload
	if err := json.Unmarshal(receive(t, reqs).body, &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Description != "ERROR: disk full" || embed.Color != discordColorCritical {
		t.Errorf("unexpected embed %+v", embed)
	}
	if embed.Timestamp != "2024-01-02T03:04:05Z" || !strings.Contains(embed.Title, "ERROR") {
		t.Errorf("unexpected embed %+v", embed)
	}
	if d.Name() != "discord" {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestDiscord_Deliver_ErrorStatus(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusTooManyRequests)
	d, _ := NewDiscord(server.URL, time.Second)
	if err := d.Deliver(context.Background(), zapcore.WarnLevel, "WARN: x"); err == nil {
		t.Error("Deliver() should fail on 429")
	}
}

func TestDiscordColor(t *testing.T) {
	if discordColor(zapcore.WarnLevel) != discordColorWarning {
		t.Error("warn should be orange")
	}
	if discordColor(zapcore.DPanicLevel) != discordColorCritical {
		t.Error("dpanic should be red")
	}
	if discordColor(zapcore.DebugLevel) != discordColorInfo {
		t.Error("debug should be grey")
	}
}
