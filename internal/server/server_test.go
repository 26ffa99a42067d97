package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/model"
)

// browser is an HTTP client with a cookie jar, so the session cookie flows
// between requests the way it would in a browser.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (b *browser) post(path, body string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Post(b.base+path, "application/json", strings.NewReader(body))
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := feedstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(Config{
		Port:             0,
		SessionTTL:       time.Hour,
		DefaultAvatarURL: "https://example.com/a.png",
	}, store, slog.New(slog.DiscardHandler))
	require.NoError(t, s.Boot(context.Background()))

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_SessionFlow(t *testing.T) {
	ts := newTestServer(t)
	b := newBrowser(t, ts.URL)

	assert.Equal(t, http.StatusUnauthorized, b.get("/api/me").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, b.post("/api/posts", `{"content":"hi"}`).StatusCode)

	resp := b.post("/api/auth/signin", `{"email":"demo@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The cookie persists: the next request is signed in.
	assert.Equal(t, http.StatusOK, b.get("/api/me").StatusCode)

	resp = b.post("/api/posts", `{"content":"first post","emoji":"🎉"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post model.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))

	require.Equal(t, http.StatusOK, b.post("/api/posts/"+post.ID+"/like", "").StatusCode)
	require.Equal(t, http.StatusOK, b.post("/api/posts/"+post.ID+"/comment", "").StatusCode)

	resp = b.get("/api/posts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []model.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].Likes)
	assert.Equal(t, 1, posts[0].Comments)
	assert.Equal(t, "demo@example.com", posts[0].Author)

	require.Equal(t, http.StatusOK, b.post("/api/auth/signout", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, b.get("/api/me").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, b.post("/api/posts/"+post.ID+"/like", "").StatusCode)
}

func TestServer_SignUpThenReload(t *testing.T) {
	ts := newTestServer(t)
	b := newBrowser(t, ts.URL)

	resp := b.post("/api/auth/signup", `{"email":"ann@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = b.get("/api/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "ann@example.com", me.Email)

	other := newBrowser(t, ts.URL)
	resp = other.post("/api/auth/signup", `{"email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp := newBrowser(t, ts.URL).get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Users  int    `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Users, "demo accounts are seeded at boot")
}

func TestServer_BootIsRepeatable(t *testing.T) {
	store, err := feedstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(Config{SessionTTL: time.Hour}, store, slog.New(slog.DiscardHandler))
	require.NoError(t, s.Boot(context.Background()))
	require.NoError(t, s.Boot(context.Background()))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
}
