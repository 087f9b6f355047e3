// Package session keeps the API's session cookies between CLI runs.
//
// Cookies are treated as opaque values. Nothing here looks inside the
// tokens they carry; the jar only remembers what the server set and sends
// it back, the way a browser would.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// storedCookie is the on-disk form of a cookie set by the API origin.
type storedCookie struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires,omitempty"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

// Jar is an http.CookieJar that persists cookies for one origin to a file.
type Jar struct {
	mu      sync.Mutex
	path    string
	origin  *url.URL
	jar     *cookiejar.Jar
	cookies map[string]storedCookie
	now     func() time.Time
}

// Open loads the jar stored at path for origin. A missing file gives an
// empty jar; an unreadable one is an error.
func Open(path, origin string) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid session origin %q", origin)
	}

	j := &Jar{
		path:    path,
		origin:  u,
		cookies: make(map[string]storedCookie),
		now:     time.Now,
	}
	if err := j.reset(); err != nil {
		return nil, err
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// Path returns the backing file.
func (j *Jar) Path() string {
	return j.path
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	if !sameHost(u, j.origin) {
		return
	}

	now := j.now()
	for _, c := range cookies {
		key := cookieKey(c.Name, c.Path)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.cookies, key)
			continue
		}
		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[key] = sc
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Len returns how many cookies would be persisted for the origin.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	return len(j.cookies)
}

// Save writes the origin's live cookies to disk with 0600 permissions.
func (j *Jar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.pruneLocked()
	list := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		list = append(list, c)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear forgets every cookie and removes the file.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]storedCookie)
	if err := j.reset(); err != nil {
		return err
	}
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (j *Jar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	j.jar = jar
	return nil
}

func (j *Jar) load() error {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var list []storedCookie
	if err := json.Unmarshal(data, &list); err != nil {
		// A damaged session file is the same as being logged out.
		return nil
	}

	now := j.now()
	restored := make([]*http.Cookie, 0, len(list))
	for _, sc := range list {
		if !sc.Expires.IsZero() && !sc.Expires.After(now) {
			continue
		}
		j.cookies[cookieKey(sc.Name, sc.Path)] = sc
		restored = append(restored, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
			SameSite: sc.SameSite,
		})
	}
	j.jar.SetCookies(j.origin, restored)
	return nil
}

func (j *Jar) pruneLocked() {
	now := j.now()
	for k, c := range j.cookies {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			delete(j.cookies, k)
		}
	}
}

func cookieKey(name, path string) string {
	return name + ";" + path
}

func sameHost(a, b *url.URL) bool {
	return a != nil && b != nil && a.Hostname() == b.Hostname()
}
