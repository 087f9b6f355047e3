package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Authentication endpoints, relative to the API base URL.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
	LogoutPath  = "/auth/logout"
)

// Client navigation targets. The query parameters are read by the login
// screen to pick the message it shows.
const (
	LoginScreen          = "/auth/login"
	SessionExpiredTarget = "/auth/login?error=session_expired"
	LoggedOutTarget      = "/auth/login?logout=success"
)

// RequestIDHeader carries a per-call identifier so server logs can be
// correlated with client logs.
const RequestIDHeader = "X-Request-ID"

// Client issues every API call with the shared base URL and cookie jar,
// and recovers once from an expired session by refreshing it.
//
// Build one Client at startup and pass it to whoever needs it.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	navigator     Navigator
	logger        *slog.Logger
	sharedRefresh bool
	refreshGroup  singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client. If the given
// client has no cookie jar, one is attached so session cookies are kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithNavigator sets where session-expiry and logout redirects go.
func WithNavigator(nav Navigator) Option {
	return func(c *Client) {
		c.navigator = nav
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSharedRefresh makes concurrent callers that hit 401 at the same time
// share a single in-flight refresh call instead of each issuing their own.
func WithSharedRefresh() Option {
	return func(c *Client) {
		c.sharedRefresh = true
	}
}

// New creates a Client for the API rooted at baseURL (for example
// "https://admin.example.org/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	c := &Client{baseURL: u}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		// The caller's client may be shared (http.DefaultClient); keep it untouched.
		hc := *c.http
		hc.Jar = jar
		c.http = &hc
	}
	if c.navigator == nil {
		c.navigator = NewMemoryNavigator("/")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Navigator returns the navigator used for redirects.
func (c *Client) Navigator() Navigator {
	return c.navigator
}

// Do sends req and applies the session recovery policy to the result.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	req.Path = normalizePath(req.Path)
	return c.do(ctx, req, attempt{})
}

func (c *Client) do(ctx context.Context, req Request, att attempt) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err == nil {
		return resp, nil
	}
	return c.intercept(ctx, req, att, err)
}

// intercept decides what happens to a failed call. Only a 401 on a
// non-auth endpoint that has not been retried yet is recovered from.
func (c *Client) intercept(ctx context.Context, req Request, att attempt, err error) (*Response, error) {
	if isAuthEndpoint(req.Path) {
		return nil, err
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || att.retried {
		return nil, err
	}

	att.retried = true

	if refreshErr := c.refreshSession(ctx); refreshErr != nil {
		if ctx.Err() != nil {
			// The caller gave up; that says nothing about the session.
			return nil, refreshErr
		}
		c.logger.Info("session refresh failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Any("error", refreshErr))
		c.expireSession(ctx)
		return nil, refreshErr
	}

	c.logger.Debug("session refreshed, retrying request",
		slog.String("method", req.Method),
		slog.String("path", req.Path))

	return c.do(ctx, req, att)
}

func (c *Client) refreshSession(ctx context.Context) error {
	if !c.sharedRefresh {
		return c.Refresh(ctx)
	}
	// The shared refresh must outlive whichever caller started it.
	ch := c.refreshGroup.DoChan(RefreshPath, func() (interface{}, error) {
		return nil, c.Refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("joined in-flight session refresh")
		}
		return res.Err
	}
}

// expireSession clears whatever the server still holds and sends the user
// back to the login screen. The logout call is best-effort.
func (c *Client) expireSession(ctx context.Context) {
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: LogoutPath}); err != nil {
		c.logger.Warn("logout after failed refresh did not succeed", slog.Any("error", err))
	}

	if isLoginScreen(c.navigator.Location()) {
		return
	}
	c.navigator.Navigate(SessionExpiredTarget)
}

// send performs a single HTTP round trip. Non-2xx statuses are returned as
// *APIError and transport failures as *NetworkError.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.New().String())
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, newAPIError(method, req.Path, httpResp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// resolve expects a path already passed through normalizePath.
func (c *Client) resolve(path string) string {
	return c.baseURL.String() + path
}

// Get fetches path and decodes the JSON body into out (which may be nil).
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

// Put sends in as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	req, err := NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
