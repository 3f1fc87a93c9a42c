// Package sink holds the delivery backends the alert dispatcher can hand
// alerts to. Every backend implements alerting.Deliverer.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/validation"
)

var ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

// Sink is a named Deliverer.
type Sink interface {
	alerting.Deliverer
	Name() string
}

// Multi delivers to every sink in order. A failing sink does not stop the
// ones after it; all errors are joined.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &Multi{sinks: filtered}
}

func (m *Multi) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Deliver(ctx, level, message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Name() string {
	return "multi(" + strings.Join(m.Names(), ",") + ")"
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

// Names lists the wrapped sinks in delivery order.
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Close releases sinks that hold connections.
func (m *Multi) Close() {
	for _, s := range m.sinks {
		if c, ok := s.(closer); ok {
			c.Close()
		}
	}
}

type closer interface {
	Close()
}

// validateEndpoint accepts http(s) URLs and requires https for anything that
// is not loopback.
func validateEndpoint(kind, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s URL is required", kind)
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s URL: %w", kind, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%s URL must use http or https scheme", kind)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%s URL must include a host", kind)
	}
	host := strings.ToLower(parsedURL.Hostname())
	if host != "localhost" && host != "127.0.0.1" && host != "::1" {
		if parsedURL.Scheme == "http" {
			return nil, fmt.Errorf("non-localhost URLs must use https")
		}
	}
	return parsedURL, nil
}

// post sends body and treats any non-2xx status as an error carrying up to
// 512 bytes of the response.
func post(ctx context.Context, client *http.Client, endpoint, contentType string, body []byte, headers map[string]string) error {
	if int64(len(body)) > config.AlertMaxPayloadSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(body), config.AlertMaxPayloadSize)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", config.GetUserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.DefaultAlertHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func truncate(s string, max int) string {
	return validation.Truncate(s, max)
}

// clean prepares a message for embedding in a structured payload.
func clean(message string, max int) string {
	return truncate(validation.SanitizeMessage(message), max)
}

// severity maps a log level onto the names alerting backends expect.
func severity(level zapcore.Level) string {
	switch {
	case level >= zapcore.FatalLevel:
		return "fatal"
	case level >= zapcore.DPanicLevel:
		return "critical"
	case level >= zapcore.ErrorLevel:
		return "error"
	case level >= zapcore.WarnLevel:
		return "warning"
	default:
		return "info"
	}
}
