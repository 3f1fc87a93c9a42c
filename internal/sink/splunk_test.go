package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestNewSplunk(t *testing.T) {
	if _, err := NewSplunk("https://splunk.example.com:8088/services/collector", "", time.Second); err == nil {
		t.Error("NewSplunk() should require a token")
	}
	if _, err := NewSplunk("ftp://splunk.example.com", "token", time.Second); err == nil {
		t.Error("NewSplunk() should reject non-http schemes")
	}
	if _, err := NewSplunk("https://splunk.example.com:8088/services/collector", "token", time.Second); err != nil {
		t.Errorf("NewSplunk() error = %v", err)
	}
}

func TestSplunk_Deliver(t *testing.T) {
	server, reqs := newCaptureServer(t, http.StatusOK)
	s, err := NewSplunk(server.URL, "hec-token", time.Second)
	if err != nil {
		t.Fatalf("NewSplunk() error = %v", err)
	}
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	if err := s.Deliver(context.Background(), zapcore.WarnLevel, "WARN: slow disk"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	req := receive(t, reqs)
	if req.headers.Get("Authorization") != "Splunk hec-token" {
		t.Errorf("unexpected Authorization %q", req.headers.Get("Authorization"))
	}
	var event SplunkEvent
	if err := json.Unmarshal(req.body, &event); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if event.Time != 1700000000 || event.Sourcetype != "alertsub:alert" {
		t.Errorf("unexpected event %+v", event)
	}
	if event.Event["message"] != "WARN: slow disk" || event.Event["severity"] != "warning" {
		t.Errorf("unexpected event body %+v", event.Event)
	}
	if s.Name() != "splunk" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestSplunk_Deliver_ErrorStatus(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	s, _ := NewSplunk(server.URL, "hec-token", time.Second)
	if err := s.Deliver(context.Background(), zapcore.ErrorLevel, "ERROR: x"); err == nil {
		t.Error("Deliver() should return error for non-2xx status")
	}
}
