// Package security keeps credentials out of log output.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// rule pairs a credential-shape pattern with its replacement template.
type rule struct {
	pattern *regexp.Regexp
	replace string
}

// Redactor replaces secret values in strings with a redaction placeholder.
// It matches known credential shapes by regex and exact values registered at
// startup. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	rules    []rule
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with rules for the credential
// shapes cinegate handles: Telegram bot tokens and database URL passwords.
func NewRedactor() *Redactor {
	return &Redactor{
		rules: []rule{
			// Telegram bot token: <bot_id>:<hash>. The hash length floor
			// keeps ordinary id:value pairs out of the match.
			{regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`), RedactPlaceholder},
			// Password in a DSN userinfo section.
			{regexp.MustCompile(`(://[^:/@\s]+:)[^@/\s]+@`), "${1}" + RedactPlaceholder + "@"},
		},
	}
}

// AddLiteral registers an exact secret value to redact on sight. Used for
// values that match no pattern, like the MTProto API hash. Empty strings are
// ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	rules := r.rules
	literals := r.literals
	r.mu.RUnlock()

	for _, rl := range rules {
		s = rl.pattern.ReplaceAllString(s, rl.replace)
	}
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	return s
}
