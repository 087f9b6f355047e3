package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || username == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}

	return username + "@" + strings.Join(labels, ".")
}

// EmailAttr is a slog attribute carrying a masked email
func EmailAttr(email string) slog.Attr {
	return slog.String("email", SanitizedEmail(email))
}

var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"apikey",
	"email",
	"auth",
	"csrf",
}

// SanitizeQueryString reports whether a raw query mentions a sensitive
// parameter and should be redacted as a whole
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

// RedactedPath renders path plus query for logs, hiding the query when it
// carries anything sensitive
func RedactedPath(path, rawQuery string) string {
	switch {
	case rawQuery == "":
		return path
	case SanitizeQueryString(rawQuery):
		return path + "?[REDACTED]"
	default:
		return path + "?" + rawQuery
	}
}

// RedactedURL is RedactedPath for a full URL
func RedactedURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	base := *u
	base.RawQuery = ""
	base.User = nil
	return RedactedPath(base.String(), u.RawQuery)
}
