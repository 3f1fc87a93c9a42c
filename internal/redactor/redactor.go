package redactor

import (
	"regexp"
)

// Rule describes one PII redaction pattern applied to alert messages.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// Redactor applies a list of Rules to a message.
type Redactor struct {
	rules []Rule
}

// Default returns a Redactor with built-in rules for common PII patterns.
func Default() *Redactor {
	return &Redactor{rules: defaultRules()}
}

// New creates a Redactor with the provided rules.
func New(rules []Rule) *Redactor {
	return &Redactor{rules: rules}
}

// Redact returns msg with every rule applied in order.
func (r *Redactor) Redact(msg string) string {
	for _, rule := range r.rules {
		msg = rule.Pattern.ReplaceAllString(msg, rule.Replace)
	}
	return msg
}

func (r *Redactor) Rules() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	return names
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:    "password",
			Pattern: regexp.MustCompile(`(?i)(password|passwd|pwd)=[^\s&]+`),
			Replace: "${1}=***",
		},
		{
			Name:    "bearer_token",
			Pattern: regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._~+/\-]+=*`),
			Replace: "Bearer ***",
		},
		{
			Name:    "email",
			Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			Replace: "***@***",
		},
		{
			Name:    "credit_card",
			Pattern: regexp.MustCompile(`\b(\d{4}[\s\-]?){3}\d{4}\b`),
			Replace: "****-****-****-****",
		},
	}
}
