package feedstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
)

// steppingClock returns a clock that starts at start milliseconds and moves
// forward by step on every reading.
func steppingClock(start, step int64) func() time.Time {
	var ms atomic.Int64
	ms.Store(start - step)
	return func() time.Time {
		return time.UnixMilli(ms.Add(step))
	}
}

// newTestStore returns a fresh in-memory store. Every test gets its own.
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func samplePost(content string) NewPost {
	return NewPost{
		Content:      content,
		Emoji:        "😊",
		Author:       "demo@example.com",
		AuthorAvatar: "https://example.com/avatar.png",
	}
}

// =========================================================================
// INITIALIZE
// =========================================================================

func TestInitialize_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Initialize(ctx))

	v, err := s.docs.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestInitialize_UnopenableStorage(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "missing", "feed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	err = s.Initialize(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrStorageUnavailable), "got %v", err)

	_, err = s.ListPosts(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrStorageUnavailable), "got %v", err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	created, err := s.CreatePost(ctx, samplePost("survives restarts"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

// =========================================================================
// POSTS
// =========================================================================

func TestCreatePost(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(1718000000000, 1)))
	ctx := context.Background()

	post, err := s.CreatePost(ctx, samplePost("hello feed"))
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, int64(1718000000000), post.Timestamp)
	assert.Equal(t, "hello feed", post.Content)
	assert.Equal(t, "😊", post.Emoji)
	assert.Equal(t, "demo@example.com", post.Author)
	assert.Equal(t, "https://example.com/avatar.png", post.AuthorAvatar)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Comments)
	assert.Zero(t, post.Shares)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, *post, posts[0])
}

func TestCreatePost_NoContentValidation(t *testing.T) {
	s := newTestStore(t)

	post, err := s.CreatePost(context.Background(), samplePost(""))
	require.NoError(t, err, "content rules belong to the producer")
	assert.Empty(t, post.Content)
}

func TestCreatePost_NewestFirst(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(1718000000000, 10)))
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := s.CreatePost(ctx, samplePost(content))
		require.NoError(t, err)

		posts, err := s.ListPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, content, posts[0].Content, "latest post must lead the feed")
	}
}

func TestListPosts_Scenario(t *testing.T) {
	// A at t=100, B at t=200 → [B, A]
	s := newTestStore(t, WithClock(steppingClock(100, 100)))
	ctx := context.Background()

	a, err := s.CreatePost(ctx, samplePost("A"))
	require.NoError(t, err)
	b, err := s.CreatePost(ctx, samplePost("B"))
	require.NoError(t, err)

	assert.Equal(t, int64(100), a.Timestamp)
	assert.Equal(t, int64(200), b.Timestamp)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, b.ID, posts[0].ID)
	assert.Equal(t, a.ID, posts[1].ID)
}

func TestListPosts_TimestampTieIsDeterministic(t *testing.T) {
	frozen := func() time.Time { return time.UnixMilli(500) }
	s := newTestStore(t, WithClock(frozen))
	ctx := context.Background()

	var ids []string
	for _, content := range []string{"one", "two", "three"} {
		p, err := s.CreatePost(ctx, samplePost(content))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	for i := 0; i < 3; i++ {
		posts, err := s.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]},
			[]string{posts[0].ID, posts[1].ID, posts[2].ID},
			"later insertion first among equal timestamps")
	}
}

func TestListPosts_Empty(t *testing.T) {
	s := newTestStore(t)

	posts, err := s.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGetPost_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPost(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func TestIncrementPostStat_Sequential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post, err := s.CreatePost(ctx, samplePost("like me"))
	require.NoError(t, err)

	const n = 17
	for i := 0; i < n; i++ {
		_, err := s.IncrementPostStat(ctx, post.ID, model.StatLikes)
		require.NoError(t, err)
	}

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)
	assert.Zero(t, got.Comments)
	assert.Zero(t, got.Shares)
	assert.Equal(t, post.Timestamp, got.Timestamp, "timestamp is immutable")
}

func TestIncrementPostStat_EachCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post, err := s.CreatePost(ctx, samplePost("interact"))
	require.NoError(t, err)

	for _, stat := range model.Stats {
		t.Run(string(stat), func(t *testing.T) {
			updated, err := s.IncrementPostStat(ctx, post.ID, stat)
			require.NoError(t, err)
			assert.Equal(t, 1, updated.Count(stat))
		})
	}
}

func TestIncrementPostStat_NotFoundHasNoSideEffect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.CreatePost(ctx, samplePost("bystander"))
	require.NoError(t, err)

	_, err = s.IncrementPostStat(ctx, "no-such-post", model.StatLikes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, *existing, posts[0])
}

func TestIncrementPostStat_UnknownStat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post, err := s.CreatePost(ctx, samplePost("x"))
	require.NoError(t, err)

	_, err = s.IncrementPostStat(ctx, post.ID, model.Stat("views"))
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
}

// =========================================================================
// USERS
// =========================================================================

func TestRegisterUser(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(1718000000000, 1)))
	ctx := context.Background()

	user, err := s.RegisterUser(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, int64(1718000000000), user.CreatedAt)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.RegisterUser(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.RegisterUser(ctx, "ann@example.com", "other-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrDuplicateEmail), "got %v", err)

	got, found, err := s.ResolveSession(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, *first, *got, "first account must be unchanged")

	_, ok, err := s.Authenticate(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterUser_EmailIsNotNormalized(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, "Ann@Example.com", "secret1")
	require.NoError(t, err)
	_, err = s.RegisterUser(ctx, "ann@example.com", "secret1")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	registered, err := s.RegisterUser(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantOK   bool
	}{
		{name: "exact match", email: "ann@example.com", password: "secret1", wantOK: true},
		{name: "wrong password", email: "ann@example.com", password: "secret2"},
		{name: "password prefix", email: "ann@example.com", password: "secret"},
		{name: "empty password", email: "ann@example.com", password: ""},
		{name: "unknown email", email: "bob@example.com", password: "secret1"},
		{name: "email differs in case", email: "ANN@example.com", password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok, err := s.Authenticate(ctx, tt.email, tt.password)
			require.NoError(t, err, "bad credentials are not errors")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, registered.ID, user.ID)
			} else {
				assert.Nil(t, user)
			}
		})
	}
}

func TestResolveSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	registered, err := s.RegisterUser(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	user, found, err := s.ResolveSession(ctx, registered.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ann@example.com", user.Email)

	user, found, err = s.ResolveSession(ctx, "stale-pointer")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, user)
}

// =========================================================================
// SEEDING
// =========================================================================

func TestSeedDefaults_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDefaults(ctx))
	require.NoError(t, s.SeedDefaults(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSeedUsers()), stats.Users)

	for _, c := range DefaultSeedUsers() {
		_, ok, err := s.Authenticate(ctx, c.Email, c.Password)
		require.NoError(t, err)
		assert.True(t, ok, "seeded account %s must sign in", c.Email)
	}
}

func TestSeedDefaults_DemoScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDefaults(ctx))

	_, ok, err := s.Authenticate(ctx, "demo@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.Authenticate(ctx, "demo@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedDefaults_KeepsPreexistingAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Someone registered the demo email with their own password first.
	_, err := s.RegisterUser(ctx, "demo@example.com", "mine")
	require.NoError(t, err)

	require.NoError(t, s.SeedDefaults(ctx))

	_, ok, err := s.Authenticate(ctx, "demo@example.com", "mine")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithSeedUsers(t *testing.T) {
	s := newTestStore(t, WithSeedUsers(Credentials{Email: "ops@example.com", Password: "opspass"}))
	ctx := context.Background()

	require.NoError(t, s.SeedDefaults(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Users)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, samplePost("a"))
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, samplePost("b"))
	require.NoError(t, err)
	_, err = s.RegisterUser(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Posts: 2, Users: 1}, stats)
}
