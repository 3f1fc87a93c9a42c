package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultLogLevel            = "info"
	DefaultAlertMinLevel       = "warn"
	DefaultDedupTTL            = 30 * time.Minute
	DefaultQueueSize           = 100
	DefaultPurgeInterval       = 60 * time.Second
	DefaultAlertHTTPTimeout    = 10 * time.Second
	DefaultAlertMaxPayloadSize = 1024 * 1024
	DefaultSlackChannel        = "#alerts"
	DefaultNATSSubject         = "alerts"
	DefaultK8sNamespace        = "default"
	DefaultK8sObjectKind       = "Pod"
	DefaultMetricsPort         = 3000
	DefaultMetricsHost         = "127.0.0.1"
	DefaultTracingSampleRate   = 1.0
	DefaultOTLPEndpoint        = "localhost:4318"
	DefaultShutdownTimeout     = 5 * time.Second
	DefaultVersion             = "v0.1.0"
)

const (
	DefaultMetricsReadTimeout     = 5 * time.Second
	DefaultMetricsWriteTimeout    = 10 * time.Second
	DefaultMetricsShutdownTimeout = 5 * time.Second
	MaxRequestSize                = 1024 * 1024
	DefaultRateLimitPerSec        = 10
	DefaultRateLimitBurst         = 20
	MaxLogLineSize                = 1024 * 1024
)

const MaxAlertMessageLength = 4096

// Seal settings, read from the SEAL_* variables.
var (
	SealURL         = getEnvOrDefault("SEAL_URL", "")
	SealBearerToken = getEnvOrDefault("SEAL_BEARER_TOKEN", "")
	SealDedupTime   = getSecondsEnvOrDefault("SEAL_DEDUP_TIME", DefaultDedupTTL)
	SealBuffer      = getIntEnvOrDefault("SEAL_BUFFER", DefaultQueueSize)
)

var (
	AlertMinLevel        = getEnvOrDefault("ALERTSUB_MIN_LEVEL", DefaultAlertMinLevel)
	AlertDedupTTL        = getTTLEnvOrDefault("ALERTSUB_DEDUP_TTL", SealDedupTime)
	AlertQueueSize       = getIntEnvOrDefault("ALERTSUB_QUEUE_SIZE", SealBuffer)
	AlertPurgeInterval   = getDurationEnvOrDefault("ALERTSUB_PURGE_INTERVAL", DefaultPurgeInterval)
	AlertHTTPTimeout     = getDurationEnvOrDefault("ALERTSUB_HTTP_TIMEOUT", DefaultAlertHTTPTimeout)
	AlertMaxPayloadSize  = getInt64EnvOrDefault("ALERTSUB_MAX_PAYLOAD_SIZE", DefaultAlertMaxPayloadSize)
	AlertRateLimit       = getIntEnvOrDefault("ALERTSUB_RATE_LIMIT_PER_MIN", 0)
	AlertWebhookURL      = getEnvOrDefault("ALERTSUB_WEBHOOK_URL", "")
	AlertSlackWebhookURL = getEnvOrDefault("ALERTSUB_SLACK_WEBHOOK_URL", "")
	AlertSlackChannel    = getEnvOrDefault("ALERTSUB_SLACK_CHANNEL", DefaultSlackChannel)
	AlertDiscordURL      = getEnvOrDefault("ALERTSUB_DISCORD_WEBHOOK_URL", "")
	SplunkEndpoint       = getEnvOrDefault("ALERTSUB_SPLUNK_ENDPOINT", "")
	SplunkToken          = getEnvOrDefault("ALERTSUB_SPLUNK_TOKEN", "")
	NATSURL              = getEnvOrDefault("ALERTSUB_NATS_URL", "")
	NATSSubject          = getEnvOrDefault("ALERTSUB_NATS_SUBJECT", DefaultNATSSubject)
	K8sEventsEnabled     = getEnvOrDefault("ALERTSUB_K8S_EVENTS_ENABLED", "false") == "true"
	K8sNamespace         = getEnvOrDefault("ALERTSUB_K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", DefaultK8sNamespace))
	K8sObjectKind        = getEnvOrDefault("ALERTSUB_K8S_OBJECT_KIND", DefaultK8sObjectKind)
	K8sObjectName        = getEnvOrDefault("ALERTSUB_K8S_OBJECT_NAME", getEnvOrDefault("POD_NAME", ""))
	LogSinkEnabled       = getEnvOrDefault("ALERTSUB_LOG_SINK", "false") == "true"
	RedactEnabled        = getEnvOrDefault("ALERTSUB_REDACT", "false") == "true"
	TracingEnabled       = getEnvOrDefault("ALERTSUB_TRACING_ENABLED", "false") == "true"
	TracingSampleRate    = getFloatEnvOrDefault("ALERTSUB_TRACING_SAMPLE_RATE", DefaultTracingSampleRate)
	OTLPEndpoint         = getEnvOrDefault("ALERTSUB_OTLP_ENDPOINT", DefaultOTLPEndpoint)
	ShutdownTimeout      = getDurationEnvOrDefault("ALERTSUB_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	RateLimitPerSec      = getIntEnvOrDefault("ALERTSUB_METRICS_RATE_LIMIT_PER_SEC", DefaultRateLimitPerSec)
	RateLimitBurst       = getIntEnvOrDefault("ALERTSUB_METRICS_RATE_LIMIT_BURST", DefaultRateLimitBurst)
	Version              = getEnvOrDefault("ALERTSUB_VERSION", DefaultVersion)
)

var (
	warningsMu sync.Mutex
	warnings   []string
)

// Warnings returns the optional settings that were set to unparsable values
// and replaced by their defaults.
func Warnings() []string {
	warningsMu.Lock()
	defer warningsMu.Unlock()
	out := make([]string, len(warnings))
	copy(out, warnings)
	return out
}

func warnInvalid(key, value string, defaultValue interface{}) {
	warningsMu.Lock()
	defer warningsMu.Unlock()
	warnings = append(warnings, fmt.Sprintf("%s=%q is not valid, using default (%v)", key, value, defaultValue))
}

// Reload re-reads every environment-driven setting. Used after a .env file has
// been loaded and by tests.
func Reload() {
	warningsMu.Lock()
	warnings = nil
	warningsMu.Unlock()

	SealURL = getEnvOrDefault("SEAL_URL", "")
	SealBearerToken = getEnvOrDefault("SEAL_BEARER_TOKEN", "")
	SealDedupTime = getSecondsEnvOrDefault("SEAL_DEDUP_TIME", DefaultDedupTTL)
	SealBuffer = getIntEnvOrDefault("SEAL_BUFFER", DefaultQueueSize)

	AlertMinLevel = getEnvOrDefault("ALERTSUB_MIN_LEVEL", DefaultAlertMinLevel)
	AlertDedupTTL = getTTLEnvOrDefault("ALERTSUB_DEDUP_TTL", SealDedupTime)
	AlertQueueSize = getIntEnvOrDefault("ALERTSUB_QUEUE_SIZE", SealBuffer)
	AlertPurgeInterval = getDurationEnvOrDefault("ALERTSUB_PURGE_INTERVAL", DefaultPurgeInterval)
	AlertHTTPTimeout = getDurationEnvOrDefault("ALERTSUB_HTTP_TIMEOUT", DefaultAlertHTTPTimeout)
	AlertMaxPayloadSize = getInt64EnvOrDefault("ALERTSUB_MAX_PAYLOAD_SIZE", DefaultAlertMaxPayloadSize)
	AlertRateLimit = getIntEnvOrDefault("ALERTSUB_RATE_LIMIT_PER_MIN", 0)
	AlertWebhookURL = getEnvOrDefault("ALERTSUB_WEBHOOK_URL", "")
	AlertSlackWebhookURL = getEnvOrDefault("ALERTSUB_SLACK_WEBHOOK_URL", "")
	AlertSlackChannel = getEnvOrDefault("ALERTSUB_SLACK_CHANNEL", DefaultSlackChannel)
	AlertDiscordURL = getEnvOrDefault("ALERTSUB_DISCORD_WEBHOOK_URL", "")
	SplunkEndpoint = getEnvOrDefault("ALERTSUB_SPLUNK_ENDPOINT", "")
	SplunkToken = getEnvOrDefault("ALERTSUB_SPLUNK_TOKEN", "")
	NATSURL = getEnvOrDefault("ALERTSUB_NATS_URL", "")
	NATSSubject = getEnvOrDefault("ALERTSUB_NATS_SUBJECT", DefaultNATSSubject)
	K8sEventsEnabled = getEnvOrDefault("ALERTSUB_K8S_EVENTS_ENABLED", "false") == "true"
	K8sNamespace = getEnvOrDefault("ALERTSUB_K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", DefaultK8sNamespace))
	K8sObjectKind = getEnvOrDefault("ALERTSUB_K8S_OBJECT_KIND", DefaultK8sObjectKind)
	K8sObjectName = getEnvOrDefault("ALERTSUB_K8S_OBJECT_NAME", getEnvOrDefault("POD_NAME", ""))
	LogSinkEnabled = getEnvOrDefault("ALERTSUB_LOG_SINK", "false") == "true"
	RedactEnabled = getEnvOrDefault("ALERTSUB_REDACT", "false") == "true"
	TracingEnabled = getEnvOrDefault("ALERTSUB_TRACING_ENABLED", "false") == "true"
	TracingSampleRate = getFloatEnvOrDefault("ALERTSUB_TRACING_SAMPLE_RATE", DefaultTracingSampleRate)
	OTLPEndpoint = getEnvOrDefault("ALERTSUB_OTLP_ENDPOINT", DefaultOTLPEndpoint)
	ShutdownTimeout = getDurationEnvOrDefault("ALERTSUB_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	RateLimitPerSec = getIntEnvOrDefault("ALERTSUB_METRICS_RATE_LIMIT_PER_SEC", DefaultRateLimitPerSec)
	RateLimitBurst = getIntEnvOrDefault("ALERTSUB_METRICS_RATE_LIMIT_BURST", DefaultRateLimitBurst)
	Version = getEnvOrDefault("ALERTSUB_VERSION", DefaultVersion)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getInt64EnvOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil && i > 0 {
			return i
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

// getTTLEnvOrDefault is getDurationEnvOrDefault that also accepts zero, which
// turns dedup off.
func getTTLEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// getSecondsEnvOrDefault parses a whole number of seconds, the unit SEAL_DEDUP_TIME uses.
// Zero is allowed. Values too large for a time.Duration are clamped.
func getSecondsEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if s, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64); err == nil {
			if s > uint64(maxDurationSeconds) {
				s = uint64(maxDurationSeconds)
			}
			return time.Duration(s) * time.Second
		}
		warnInvalid(key, value, defaultValue)
	}
	return defaultValue
}

func GetMetricsAddress() string {
	addr := os.Getenv("ALERTSUB_METRICS_ADDR")
	if addr == "" {
		addr = DefaultMetricsHost + ":" + strconv.Itoa(DefaultMetricsPort)
	}
	return addr
}

func AllowNonLoopbackMetrics() bool {
	return os.Getenv("ALERTSUB_METRICS_INSECURE_ALLOW_ANY_ADDR") == "1"
}

func GetVersion() string {
	return Version
}

func GetUserAgent() string {
	return "alertsub/" + Version
}
