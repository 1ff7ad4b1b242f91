// Package redact scrubs credentials from strings before they reach logs.
package redact

import "regexp"

const placeholder = "[REDACTED]"

var (
	bearerRegex = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-.~+/=]{8,}`)
	apiKeyRegex = regexp.MustCompile(
		`(?i)((?:api[_-]?key|token|secret|authorization)["']?\s*[:=]\s*["']?)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	skKeyRegex = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}`)
)

// String replaces bearer tokens and key-looking values in s.
func String(s string) string {
	s = bearerRegex.ReplaceAllString(s, "${1}"+placeholder)
	s = apiKeyRegex.ReplaceAllString(s, "${1}"+placeholder)
	return skKeyRegex.ReplaceAllString(s, placeholder)
}

// Error redacts err's message. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
