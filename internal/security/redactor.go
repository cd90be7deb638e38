// Package security keeps secrets out of log output. The Notion integration
// token authenticates every API call the jobs make; it must never surface
// in logs, error strings, or status responses.
package security

import (
	"regexp"
	"strings"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// tokenPatterns matches known Notion credential formats, so even a token
// that never passed through the config (pasted into a log call by accident)
// is caught.
var tokenPatterns = []*regexp.Regexp{
	// Internal integration tokens: secret_... (legacy) and ntn_... (current).
	regexp.MustCompile(`secret_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`ntn_[A-Za-z0-9]{20,}`),
	// A bearer credential serialized as part of a header dump.
	regexp.MustCompile(`Bearer [A-Za-z0-9_\-]{20,}`),
}

// Redactor replaces secret values in strings with RedactPlaceholder. It
// matches known token formats plus the literal credentials loaded from
// configuration. The literal set is fixed at construction, so a Redactor is
// safe for concurrent use.
type Redactor struct {
	literals []string
}

// NewRedactor creates a Redactor that additionally redacts the given
// literal values wherever they appear. Empty literals are ignored.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{}
	for _, lit := range literals {
		if lit != "" {
			r.literals = append(r.literals, lit)
		}
	}
	return r
}

// Redact replaces all known token formats and literal values in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range tokenPatterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range r.literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	return s
}
