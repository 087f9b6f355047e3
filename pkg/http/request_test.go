package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/mss-project-web/admin-dashboard-sub000/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	trusted := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8", "127.0.0.1/32", "not-a-cidr"}}

	tests := []struct {
		name       string
		config     *pkghttp.IPConfig
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct client ignores spoofed headers", trusted, "203.0.113.10:54321", "1.2.3.4", "5.6.7.8", "203.0.113.10"},
		{"nil config uses remote addr", nil, "203.0.113.10:54321", "1.2.3.4", "", "203.0.113.10"},
		{"trusted proxy uses first forwarded address", trusted, "10.0.0.5:1234", "198.51.100.7, 10.0.0.9", "", "198.51.100.7"},
		{"trusted proxy skips invalid forwarded entries", trusted, "10.0.0.5:1234", "garbage, 198.51.100.8", "", "198.51.100.8"},
		{"trusted proxy falls back to X-Real-IP", trusted, "127.0.0.1:1234", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy with no headers", trusted, "127.0.0.1:1234", "", "", "127.0.0.1"},
		{"remote addr without port", nil, "203.0.113.11", "", "", "203.0.113.11"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}

func TestExtractClientIP_EmptyRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = ""

	assert.Equal(t, "unknown", pkghttp.ExtractClientIP(req, nil))
}
