package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HTTPJar adapts one HTTP exchange: cookies are read from the request and
// written as Set-Cookie headers on the response. Cookies written during the
// exchange shadow the request's, so a handler sees its own writes.
type HTTPJar struct {
	w       http.ResponseWriter
	r       *http.Request
	mu      sync.Mutex
	pending map[string]*http.Cookie
}

// NewHTTPJar returns a jar for the exchange (w, r).
func NewHTTPJar(w http.ResponseWriter, r *http.Request) *HTTPJar {
	return &HTTPJar{w: w, r: r, pending: make(map[string]*http.Cookie)}
}

func (j *HTTPJar) Cookie(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if c, ok := j.pending[name]; ok {
		return c, true
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return nil, false
	}
	return c, true
}

func (j *HTTPJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	http.SetCookie(j.w, c)
	j.pending[c.Name] = c
	return nil
}

// MemoryJar keeps cookies in a map.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]http.Cookie
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[string]http.Cookie)}
}

func (j *MemoryJar) Cookie(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	if !ok {
		return nil, false
	}
	return &c, true
}

func (j *MemoryJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if c.MaxAge < 0 {
		delete(j.cookies, c.Name)
		return nil
	}
	j.cookies[c.Name] = *c
	return nil
}

// FileJar persists cookies as JSON so separate processes (CLI invocations)
// share a session. The file is re-read on every access and replaced
// atomically on every write.
type FileJar struct {
	path string
	mu   sync.Mutex
}

type fileCookie struct {
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires"`
}

func NewFileJar(path string) *FileJar {
	return &FileJar{path: path}
}

// Path returns the backing file.
func (j *FileJar) Path() string {
	return j.path
}

func (j *FileJar) Cookie(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.load()
	if err != nil {
		return nil, false
	}
	fc, ok := cookies[name]
	if !ok {
		return nil, false
	}
	return &http.Cookie{Name: name, Value: fc.Value, Path: fc.Path, Expires: fc.Expires}, true
}

func (j *FileJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.load()
	if err != nil {
		return err
	}
	if c.MaxAge < 0 {
		delete(cookies, c.Name)
	} else {
		cookies[c.Name] = fileCookie{Value: c.Value, Path: c.Path, Expires: c.Expires}
	}
	return j.save(cookies)
}

func (j *FileJar) load() (map[string]fileCookie, error) {
	cookies := make(map[string]fileCookie)
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cookies, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading cookie file: %w", err)
	}
	if len(data) == 0 {
		return cookies, nil
	}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("session: decoding cookie file %s: %w", j.path, err)
	}
	return cookies, nil
}

func (j *FileJar) save(cookies map[string]fileCookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding cookies: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: creating cookie dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*")
	if err != nil {
		return fmt.Errorf("session: writing cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: writing cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: writing cookie file: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("session: replacing cookie file: %w", err)
	}
	return nil
}
