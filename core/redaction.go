package core

import (
	"fmt"
	"strings"
)

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap deep-copies a field map, replacing likely secret values.
// Used on every log path; tokens, keys, and secrets never reach a log line.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(fields)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	sensitiveTokens := []string{
		"password",
		"secret",
		"token",
		"authorization",
		"verifier",
		"api_key",
		"apikey",
		"credential",
		"cipher_key",
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

// DescribeSecret returns a diagnostic-safe fingerprint of a secret: its
// length and first few characters, never the value.
func DescribeSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "empty"
	}
	prefixLen := 4
	if len(trimmed) < prefixLen {
		prefixLen = len(trimmed)
	}
	return fmt.Sprintf("%s… (%d chars)", trimmed[:prefixLen], len(trimmed))
}
