package observability

import "strings"

const maxLogFieldBytes = 128

// logSafe drops control characters and caps the value in bytes so a
// caller-controlled path or header cannot break a log line or bloat
// log storage.
func logSafe(value string, limit int) string {
	if limit <= 0 {
		limit = maxLogFieldBytes
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			continue
		}
		if b.Len() >= limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeRoute cleans a chi route pattern for logging. Patterns here
// include verb suffixes like "/{orderID}:cancel", so the cap leaves
// room for the longest registered template.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return logSafe(route, 160)
}

// SanitizeMethod cleans an HTTP method token.
func SanitizeMethod(method string) string {
	return logSafe(method, 8)
}

// SanitizeUserID caps principal identifiers ("usr_" + ULID) before they
// reach the logs.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return logSafe(uid, 40)
}
