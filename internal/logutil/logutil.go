// Package logutil keeps request bodies and connection strings safe to log.
package logutil

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
)

// MaxBodyLogBytes caps how much of a request body is copied into a log line.
const MaxBodyLogBytes = 512

var (
	sensitiveExact     = []string{"authorization", "key", "databasekey"}
	sensitiveFragments = []string{"token", "secret", "password", "apikey", "cookie"}
)

// IsSensitiveLogField reports whether a field name looks like it holds a credential.
func IsSensitiveLogField(key string) bool {
	name := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(key)))
	if slices.Contains(sensitiveExact, name) {
		return true
	}
	return slices.ContainsFunc(sensitiveFragments, func(frag string) bool {
		return strings.Contains(name, frag)
	})
}

// RedactURL masks the password of a connection URI so it can be logged.
// Values that do not parse as URLs (bare SQLite paths) are returned as-is.
func RedactURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable url]"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}

const redacted = "[REDACTED]"

func redactValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if IsSensitiveLogField(k) {
				node[k] = redacted
			} else {
				node[k] = redactValue(child)
			}
		}
	case []any:
		for i, child := range node {
			node[i] = redactValue(child)
		}
	}
	return v
}

// RedactBodyForLog masks credential-looking fields in a JSON body. Anything
// that is not JSON comes back unchanged.
func RedactBodyForLog(contentType string, body []byte) string {
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return string(body)
	}
	var payload any
	if json.Unmarshal(body, &payload) != nil {
		return string(body)
	}
	out, err := json.Marshal(redactValue(payload))
	if err != nil {
		return string(body)
	}
	return string(out)
}

// FormatBodyForLog redacts body text and truncates it to MaxBodyLogBytes for safe logging.
func FormatBodyForLog(contentType string, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	text := RedactBodyForLog(contentType, body)
	if len(text) > MaxBodyLogBytes {
		return text[:MaxBodyLogBytes] + " [truncated]"
	}
	return text
}
