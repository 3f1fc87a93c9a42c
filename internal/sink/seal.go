package sink

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap/zapcore"
)

// Seal posts the formatted alert as a plain-text body with bearer auth.
type Seal struct {
	url         string
	bearerToken string
	client      *http.Client
}

func NewSeal(sealURL, bearerToken string, timeout time.Duration) (*Seal, error) {
	if _, err := validateEndpoint("seal", sealURL); err != nil {
		return nil, err
	}
	if bearerToken == "" {
		return nil, fmt.Errorf("seal bearer token is required")
	}
	return &Seal{
		url:         sealURL,
		bearerToken: bearerToken,
		client:      newHTTPClient(timeout),
	}, nil
}

func (s *Seal) Deliver(ctx context.Context, _ zapcore.Level, message string) error {
	return post(ctx, s.client, s.url, "text/plain; charset=utf-8", []byte(message), map[string]string{
		"Authorization": "Bearer " + s.bearerToken,
	})
}

func (s *Seal) Name() string {
	return "seal"
}
