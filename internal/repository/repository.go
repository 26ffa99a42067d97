// Package repository defines the persistence contracts the service and
// handler layers depend on. feedstore.Store implements all of them; tests
// substitute fakes.
package repository

import (
	"context"

	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/model"
)

// PostRepository reads and writes feed posts.
type PostRepository interface {
	CreatePost(ctx context.Context, in feedstore.NewPost) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	IncrementPostStat(ctx context.Context, id string, stat model.Stat) (*model.Post, error)
}

// UserRepository manages accounts and credential checks.
type UserRepository interface {
	RegisterUser(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, bool, error)
	ResolveSession(ctx context.Context, userID string) (*model.User, bool, error)
}

// StatsRepository reports collection sizes.
type StatsRepository interface {
	Stats(ctx context.Context) (feedstore.Stats, error)
}

var (
	_ PostRepository  = (*feedstore.Store)(nil)
	_ UserRepository  = (*feedstore.Store)(nil)
	_ StatsRepository = (*feedstore.Store)(nil)
)
