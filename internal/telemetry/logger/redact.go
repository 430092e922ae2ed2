package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Key patterns whose values are credentials.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// Keys whose values carry list payloads.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"values":  {},
	"element": {},
	"payload": {},
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces credentials with a placeholder and list payloads
// with their size.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if _, ok := payloadKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, describePayload(a.Value.Any()))
	}

	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

func describePayload(v any) string {
	switch p := v.(type) {
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(p))
	case string:
		return fmt.Sprintf("[%d bytes]", len(p))
	case [][]byte:
		n := 0
		for _, b := range p {
			n += len(b)
		}
		return fmt.Sprintf("[%d elements, %d bytes]", len(p), n)
	default:
		return redactedValue
	}
}

// Preview shortens s for log output, keeping the first and last three
// characters of long values.
func Preview(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:3] + "..." + s[len(s)-3:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
