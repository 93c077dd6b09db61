// Package security masks credentials before they reach logs or users.
package security

import (
	"regexp"
	"strings"
)

// sensitivePatterns match credentials embedded in URLs and messages.
var sensitivePatterns = []*regexp.Regexp{
	// query parameters such as ?api_key=... or &token=...
	regexp.MustCompile(`(?i)((?:api[_-]?key|access[_-]?token|token|password|secret)=)([^&\s"']+)`),
	// Bot API paths: /bot123456:ABC-DEF/sendMessage
	regexp.MustCompile(`(/bot)(\d+:[A-Za-z0-9_-]+)`),
}

// MaskCredential keeps the first and last four characters of long values.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// MaskString masks credentials matched by the known patterns.
func MaskString(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			return sub[1] + MaskCredential(sub[2])
		})
	}
	return result
}

// Redactor masks a fixed set of secrets plus the known patterns.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a Redactor. Empty secrets are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// String returns s with every secret masked.
func (r *Redactor) String(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, MaskCredential(secret))
	}
	return MaskString(s)
}

// Error wraps err so that its message is masked. errors.Is and errors.As
// still see the original chain.
func (r *Redactor) Error(err error) error {
	if err == nil {
		return nil
	}
	msg := r.String(err.Error())
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
