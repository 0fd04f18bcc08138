package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of any sensitive attribute.
const RedactedValue = "[REDACTED]"

// sensitiveFragments mark a key as secret when it contains any of them after
// lower-casing and dropping separators.
var sensitiveFragments = []string{
	"passphrase",
	"password",
	"secret",
	"privatekey",
	"authorization",
	"token",
	"mnemonic",
}

// Sensitive reports whether attributes under key are masked.
func Sensitive(key string) bool {
	normalized := strings.NewReplacer("_", "", "-", "", ".", "", " ", "").Replace(strings.ToLower(key))
	for _, fragment := range sensitiveFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// redact masks non-empty sensitive attributes. Groups are left alone so
// their members are checked individually.
func redact(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup || !Sensitive(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && strings.TrimSpace(attr.Value.String()) == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
