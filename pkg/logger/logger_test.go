package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"admin@mss.example.org", "a****@***.*******.org"},
		{"a@mss.example", "a@***.example"},
		{"user@localhost", "u***@localhost"},
		{"no-at-sign", "[invalid-email]"},
		{"@mss.example", "[invalid-email]"},
		{"a@b@c", "[invalid-email]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizedEmail(tt.in), tt.in)
	}
}

func TestRedactedPath(t *testing.T) {
	assert.Equal(t, "/api/users/me", RedactedPath("/api/users/me", ""))
	assert.Equal(t, "/api/news?page=2", RedactedPath("/api/news", "page=2"))
	assert.Equal(t, "/auth/reset?[REDACTED]", RedactedPath("/auth/reset", "token=abc"))
	assert.Equal(t, "/auth/login?[REDACTED]", RedactedPath("/auth/login", "Email=a%40b.c"))
}

func TestRedactedURL(t *testing.T) {
	u, err := url.Parse("https://user:pw@admin.example.org/api/x?password=hunter2")
	require.NoError(t, err)

	got := RedactedURL(u)

	assert.Equal(t, "https://admin.example.org/api/x?[REDACTED]", got)
	assert.Equal(t, "", RedactedURL(nil))
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	al.LogAuthAttempt(AuditEvent{
		EventType:     EventLoginFailed,
		Email:         "admin@mss.example",
		IPAddress:     "10.0.0.1",
		FailureReason: "invalid_credentials",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, EventLoginFailed, entry["event_type"])
	assert.Equal(t, "a****@***.example", entry["email"])
	assert.Equal(t, "2026-03-01T09:00:00Z", entry["timestamp"])
	assert.NotContains(t, buf.String(), "admin@mss.example")
}

func TestAuditLogger_SuccessIsInfo(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(AuditEvent{EventType: EventLoginSuccess, UserID: "u1", Success: true})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "u1", entry["user_id"])
}
