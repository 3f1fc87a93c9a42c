package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
)

var (
	objectNameRegex     = regexp.MustCompile(`^[a-z0-9]([-a-z0-9.]*[a-z0-9])?$`)
	namespaceRegex      = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	objectKindRegex     = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	natsSubjectRegex    = regexp.MustCompile(`^[^\s.*>]+(\.[^\s.*>]+)*$`)
	maxObjectNameLength = 253
	maxNamespaceLength  = 63
	maxQueueSize        = 1 << 20
	minPurgeInterval    = time.Second
)

// ParseLevel accepts zap level names plus "warning".
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	if s == "" {
		return zapcore.InfoLevel, fmt.Errorf("level cannot be empty")
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid level %q (valid: debug, info, warn, error, dpanic, panic, fatal)", s)
	}
	return lvl, nil
}

// ValidateDedupTTL rejects negative TTLs. Zero disables suppression.
func ValidateDedupTTL(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("dedup TTL cannot be negative")
	}
	return nil
}

func ValidateQueueSize(size int) error {
	if size < 1 {
		return fmt.Errorf("queue size must be at least 1")
	}
	if size > maxQueueSize {
		return fmt.Errorf("queue size cannot exceed %d", maxQueueSize)
	}
	return nil
}

func ValidatePurgeInterval(interval time.Duration) error {
	if interval < minPurgeInterval {
		return fmt.Errorf("purge interval must be at least %s", minPurgeInterval)
	}
	return nil
}

func ValidateObjectName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("object name cannot be empty")
	}
	if len(name) > maxObjectNameLength {
		return fmt.Errorf("object name exceeds maximum length of %d characters", maxObjectNameLength)
	}
	if !objectNameRegex.MatchString(name) {
		return fmt.Errorf("object name must match RFC 1123 subdomain format (lowercase alphanumeric, hyphens and dots)")
	}
	return nil
}

func ValidateNamespace(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("namespace cannot be empty")
	}
	if len(name) > maxNamespaceLength {
		return fmt.Errorf("namespace exceeds maximum length of %d characters", maxNamespaceLength)
	}
	if !namespaceRegex.MatchString(name) {
		return fmt.Errorf("namespace must match RFC 1123 label format (lowercase alphanumeric and hyphens)")
	}
	return nil
}

func ValidateObjectKind(kind string) error {
	if !objectKindRegex.MatchString(kind) {
		return fmt.Errorf("object kind must be a CamelCase API kind such as Pod or Deployment")
	}
	return nil
}

// ValidateNATSSubject rejects wildcards; alerts are published, never
// subscribed.
func ValidateNATSSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("NATS subject cannot be empty")
	}
	if !natsSubjectRegex.MatchString(subject) {
		return fmt.Errorf("invalid NATS subject %q", subject)
	}
	return nil
}

// SanitizeMessage drops control characters other than newline and tab, and
// invalid UTF-8.
// Truncate shortens s to at most max bytes, ending in "..." when there is room
// for it. It never splits a multi-byte rune. max <= 0 means no limit.
func Truncate(s string, max int) string {
	const ellipsis = "..."
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return s[:runeBoundary(s, max)]
	}
	return s[:runeBoundary(s, max-len(ellipsis))] + ellipsis
}

// runeBoundary backs n off to the start of the rune containing s[n].
func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func SanitizeMessage(msg string) string {
	var result strings.Builder
	result.Grow(len(msg))
	for _, r := range strings.ToValidUTF8(msg, "") {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
