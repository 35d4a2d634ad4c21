package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// DefaultMaxValueLen is the number of bytes of a stored value kept in logs.
const DefaultMaxValueLen = 64

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// Keys whose values are user data from the keyspace.
var valueKeys = map[string]struct{}{
	"value": {},
	"args":  {},
	"arg":   {},
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks secrets and truncates stored values.
func redactSensitive(a slog.Attr, maxLen int) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if _, ok := valueKeys[a.Key]; ok {
			return slog.String(a.Key, Truncate(s, maxLen))
		}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			if IsSensitiveKey(a.Key) && len(b) > 0 {
				return slog.String(a.Key, redactedValue)
			}
			return slog.String(a.Key, Truncate(string(b), maxLen))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr, maxLen)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// Truncate shortens s to at most maxLen bytes on a rune boundary and
// notes how many bytes were dropped.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(+%d bytes)", s[:cut], len(s)-cut)
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
