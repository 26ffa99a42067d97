// Package service holds the feed's business rules: what makes a valid post,
// who may interact with one. Handlers and CLI commands call it; it calls the
// repository and knows nothing about HTTP or terminals.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/repository"
)

const (
	MaxContentLength = 500
	DefaultEmoji     = "😊"
)

type FeedService struct {
	posts         repository.PostRepository
	defaultAvatar string
	logger        *slog.Logger
}

func NewFeedService(posts repository.PostRepository, defaultAvatar string, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FeedService{
		posts:         posts,
		defaultAvatar: defaultAvatar,
		logger:        logger,
	}
}

// List returns the feed, newest first.
func (s *FeedService) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: listing: %w", err)
	}
	return posts, nil
}

// Publish validates content and creates a post attributed to author.
func (s *FeedService) Publish(ctx context.Context, author *model.User, content, emoji string) (*model.Post, error) {
	if author == nil {
		return nil, fmt.Errorf("service/feed: author must not be nil")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		emoji = DefaultEmoji
	}

	post, err := s.posts.CreatePost(ctx, feedstore.NewPost{
		Content:      content,
		Emoji:        emoji,
		Author:       author.Email,
		AuthorAvatar: s.defaultAvatar,
	})
	if err != nil {
		return nil, fmt.Errorf("service/feed: publishing: %w", err)
	}
	return post, nil
}

// Interact applies a like, comment or share to a post. action accepts the
// stat name in either singular or plural form.
func (s *FeedService) Interact(ctx context.Context, postID, action string) (*model.Post, error) {
	if postID == "" {
		return nil, apperror.ValidationFailed("id", "post id is required")
	}
	stat, err := model.ParseStat(action)
	if err != nil {
		return nil, apperror.ValidationFailed("action", err.Error())
	}

	post, err := s.posts.IncrementPostStat(ctx, postID, stat)
	if err != nil {
		return nil, fmt.Errorf("service/feed: %s on %s: %w", stat, postID, err)
	}
	return post, nil
}
