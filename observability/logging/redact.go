package logging

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive values in logs.
const RedactedValue = "[REDACTED]"

// Keys emitted by the economy daemon that never carry credentials.
var redactionAllowlist = map[string]struct{}{
	"service":     {},
	"env":         {},
	"message":     {},
	"severity":    {},
	"timestamp":   {},
	"error":       {},
	"reason":      {},
	"component":   {},
	"forum":       {},
	"participant": {},
	"round":       {},
	"operation":   {},
	"outcome":     {},
}

// IsAllowlisted reports whether key may be logged verbatim.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// RedactionAllowlist returns the allowlisted keys in sorted order.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue returns RedactedValue for non-empty values. Empty values pass
// through unchanged.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField redacts value unless key is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// MaskHeaders renders exporter headers as masked attributes sorted by key.
func MaskHeaders(headers map[string]string) []any {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, MaskField(key, headers[key]))
	}
	return attrs
}

// MaskEndpoint hides the password and query values of a collector URL.
// Inputs that do not parse are masked entirely.
func MaskEndpoint(endpoint string) string {
	if strings.TrimSpace(endpoint) == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return MaskValue(endpoint)
	}
	if u.User != nil {
		if password, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), MaskValue(password))
		}
	}
	if u.RawQuery != "" {
		query := u.Query()
		for key, values := range query {
			for i := range values {
				values[i] = MaskValue(values[i])
			}
			query[key] = values
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}
