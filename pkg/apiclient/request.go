package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request describes one logical API call. The client never modifies a
// Request, so the same value can be re-sent after a session refresh.
type Request struct {
	Method string
	Path   string // relative to the API base, e.g. "/users/me"
	Header http.Header
	Body   []byte
}

// attempt is the retry state of a single logical call. It travels by value
// through the retry path so no two calls can share it.
type attempt struct {
	retried bool
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// NewJSONRequest builds a Request whose body is in encoded as JSON. A nil
// in produces a request without a body.
func NewJSONRequest(method, path string, in interface{}) (Request, error) {
	req := Request{Method: method, Path: path}
	if in == nil {
		return req, nil
	}

	body, err := json.Marshal(in)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = body
	req.Header = http.Header{"Content-Type": []string{"application/json"}}
	return req, nil
}

// normalizePath makes path relative to the API root with a leading slash.
// Both the URL that is sent and the auth endpoint check use its result.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// isAuthEndpoint reports whether path targets login, logout or refresh.
// Failures on these endpoints are never recovered from.
func isAuthEndpoint(path string) bool {
	switch stripQuery(normalizePath(path)) {
	case LoginPath, LogoutPath, RefreshPath:
		return true
	default:
		return false
	}
}

// isLoginScreen reports whether location is the login screen, ignoring any
// query string.
func isLoginScreen(location string) bool {
	return stripQuery(location) == LoginScreen
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
