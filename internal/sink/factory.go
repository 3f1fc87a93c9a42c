package sink

import (
	"errors"
	"os"

	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/kubernetes"
	"github.com/podtrace/alertsub/internal/logger"
	"github.com/podtrace/alertsub/internal/redactor"
)

var ErrNoSinks = errors.New("no alert sinks configured")

// Constructors that open connections, replaceable in tests.
var (
	newNATS      = NewNATS
	newClientset = kubernetes.NewClientset
)

// FromConfig builds every sink enabled in the environment. A sink whose
// settings are invalid fails the whole call so misconfiguration is visible at
// startup rather than on the first alert. Sinks built before the failure are
// closed.
func FromConfig() (_ *Multi, err error) {
	var sinks []Sink
	defer func() {
		if err != nil {
			NewMulti(sinks...).Close()
		}
	}()
	timeout := config.AlertHTTPTimeout

	if config.SealURL != "" {
		s, err := NewSeal(config.SealURL, config.SealBearerToken, timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.AlertWebhookURL != "" {
		s, err := NewWebhook(config.AlertWebhookURL, timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.AlertSlackWebhookURL != "" {
		s, err := NewSlack(config.AlertSlackWebhookURL, config.AlertSlackChannel, timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.AlertDiscordURL != "" {
		s, err := NewDiscord(config.AlertDiscordURL, timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.SplunkEndpoint != "" {
		s, err := NewSplunk(config.SplunkEndpoint, config.SplunkToken, timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.NATSURL != "" {
		s, err := newNATS(config.NATSURL, config.NATSSubject)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if config.K8sEventsEnabled {
		clientset, err := newClientset()
		if err != nil {
			return nil, err
		}
		host, _ := os.Hostname()
		recorder, err := kubernetes.NewEventRecorder(clientset, kubernetes.ObjectRef{
			Kind:      config.K8sObjectKind,
			Namespace: config.K8sNamespace,
			Name:      config.K8sObjectName,
		}, host)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewKubeEvent(recorder))
	}
	if config.LogSinkEnabled {
		sinks = append(sinks, NewLog(logger.Diagnostics()))
	}

	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}
	if config.RedactEnabled {
		r := redactor.Default()
		for i, s := range sinks {
			sinks[i] = NewRedacted(s, r)
		}
	}
	if config.AlertRateLimit > 0 {
		for i, s := range sinks {
			sinks[i] = NewRateLimited(s, config.AlertRateLimit)
		}
	}
	return NewMulti(sinks...), nil
}
