package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/model"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================

type mockPostRepo struct {
	posts  []model.Post
	nextID int
	err    error
}

func (m *mockPostRepo) CreatePost(_ context.Context, in feedstore.NewPost) (*model.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	p := model.Post{
		ID:           fmt.Sprintf("mock-%d", m.nextID),
		Content:      in.Content,
		Emoji:        in.Emoji,
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Timestamp:    int64(m.nextID),
	}
	m.posts = append(m.posts, p)
	return &p, nil
}

func (m *mockPostRepo) ListPosts(context.Context) ([]model.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := slices.Clone(m.posts)
	slices.Reverse(out)
	return out, nil
}

func (m *mockPostRepo) GetPost(_ context.Context, id string) (*model.Post, error) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			p := m.posts[i]
			return &p, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (m *mockPostRepo) IncrementPostStat(_ context.Context, id string, stat model.Stat) (*model.Post, error) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			if err := m.posts[i].Increment(stat); err != nil {
				return nil, err
			}
			p := m.posts[i]
			return &p, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

var ann = &model.User{ID: "u1", Email: "ann@example.com"}

func newTestService(t *testing.T) (*FeedService, *mockPostRepo) {
	t.Helper()
	repo := &mockPostRepo{}
	return NewFeedService(repo, "https://example.com/avatar.png", nil), repo
}

// =========================================================================
// PUBLISH
// =========================================================================

func TestPublish_Success(t *testing.T) {
	svc, repo := newTestService(t)

	post, err := svc.Publish(context.Background(), ann, "  hello world  ", "🎉")
	require.NoError(t, err)

	assert.Equal(t, "hello world", post.Content)
	assert.Equal(t, "🎉", post.Emoji)
	assert.Equal(t, "ann@example.com", post.Author)
	assert.Equal(t, "https://example.com/avatar.png", post.AuthorAvatar)
	assert.Len(t, repo.posts, 1)
}

func TestPublish_DefaultEmoji(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.Publish(context.Background(), ann, "hi", "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultEmoji, post.Emoji)
}

func TestPublish_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: " \n\t ", wantErr: true},
		{name: "at limit", content: strings.Repeat("a", MaxContentLength)},
		{name: "over limit", content: strings.Repeat("a", MaxContentLength+1), wantErr: true},
		{name: "multibyte at limit", content: strings.Repeat("é", MaxContentLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)

			_, err := svc.Publish(context.Background(), ann, tt.content, "")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperror.ErrValidation))
				assert.Empty(t, repo.posts)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPublish_NilAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Publish(context.Background(), nil, "hi", "")
	assert.Error(t, err)
}

func TestPublish_RepositoryError(t *testing.T) {
	svc, repo := newTestService(t)
	repo.err = apperror.StorageUnavailable("write", errors.New("disk"))

	_, err := svc.Publish(context.Background(), ann, "hi", "")
	assert.True(t, errors.Is(err, apperror.ErrStorageUnavailable))
}

// =========================================================================
// LIST / INTERACT
// =========================================================================

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Publish(ctx, ann, "first", "")
	require.NoError(t, err)
	_, err = svc.Publish(ctx, ann, "second", "")
	require.NoError(t, err)

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Content)
}

func TestInteract(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.Publish(ctx, ann, "hi", "")
	require.NoError(t, err)

	for _, action := range []string{"like", "likes", "comment", "share"} {
		_, err := svc.Interact(ctx, post.ID, action)
		require.NoError(t, err, action)
	}

	updated, err := svc.Interact(ctx, post.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Likes)
	assert.Equal(t, 1, updated.Comments)
	assert.Equal(t, 1, updated.Shares)
}

func TestInteract_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	post, err := svc.Publish(ctx, ann, "hi", "")
	require.NoError(t, err)

	_, err = svc.Interact(ctx, post.ID, "bookmark")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Interact(ctx, "", "like")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Interact(ctx, "missing", "like")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
