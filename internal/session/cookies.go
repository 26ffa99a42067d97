// Package session persists the signed-in user pointer in a cookie.
//
// The cookie holds nothing but the user id. Where the cookie lives is a Jar's
// concern: an HTTP exchange for the server, a JSON file for the CLI, memory
// for tests.
package session

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// CookieName is the persisted name of the session pointer cookie.
	CookieName = "authUserId"

	// DefaultTTL is how long a session pointer stays valid.
	DefaultTTL = 30 * 24 * time.Hour
)

// Jar is somewhere cookies can be read from and written to.
type Jar interface {
	// Cookie returns the named cookie, or false when there is none.
	Cookie(name string) (*http.Cookie, bool)
	// SetCookie stores c. A cookie with a negative MaxAge deletes the entry.
	SetCookie(c *http.Cookie) error
}

// Cookies reads and writes the session pointer through a Jar.
type Cookies struct {
	jar Jar
	ttl time.Duration
	now func() time.Time
}

// Option customizes Cookies.
type Option func(*Cookies)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cookies) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cookies) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns Cookies backed by jar.
func New(jar Jar, opts ...Option) *Cookies {
	c := &Cookies{
		jar: jar,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL reports the lifetime given to new cookies.
func (c *Cookies) TTL() time.Duration {
	return c.ttl
}

// Set stores userID as the session pointer.
func (c *Cookies) Set(userID string) error {
	if err := c.jar.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    userID,
		Path:     "/",
		Expires:  c.now().Add(c.ttl),
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}); err != nil {
		return fmt.Errorf("session: setting cookie: %w", err)
	}
	return nil
}

// Get returns the session pointer. Empty, deleted and expired cookies count as
// absent.
func (c *Cookies) Get() (string, bool) {
	ck, ok := c.jar.Cookie(CookieName)
	if !ok || ck.Value == "" || ck.MaxAge < 0 {
		return "", false
	}
	if !ck.Expires.IsZero() && !ck.Expires.After(c.now()) {
		return "", false
	}
	return ck.Value, true
}

// Clear removes the session pointer by writing an already expired cookie.
func (c *Cookies) Clear() error {
	if err := c.jar.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}); err != nil {
		return fmt.Errorf("session: clearing cookie: %w", err)
	}
	return nil
}
