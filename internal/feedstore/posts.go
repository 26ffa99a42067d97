package feedstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
)

// NewPost is what a producer supplies to create a post. Content length and
// emptiness are the producer's business; the store takes it as given.
type NewPost struct {
	Content      string
	Emoji        string
	Author       string
	AuthorAvatar string
}

// CreatePost assigns an id and timestamp, zeroes the counters and stores the
// post.
func (s *Store) CreatePost(ctx context.Context, in NewPost) (*model.Post, error) {
	id, now := s.ids.Next()
	post := model.Post{
		ID:           id,
		Content:      in.Content,
		Emoji:        in.Emoji,
		Author:       in.Author,
		AuthorAvatar: in.AuthorAvatar,
		Timestamp:    now,
	}

	if err := s.posts.Add(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", in.Author),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("feedstore: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.Int64("timestamp", post.Timestamp),
	)
	return &post, nil
}

// ListPosts returns every post, newest first. Posts sharing a timestamp come
// out in reverse insertion order, so the output is deterministic.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.posts.GetAll(ctx, TimestampIndex)
	if err != nil {
		return nil, fmt.Errorf("feedstore: listing posts: %w", err)
	}
	slices.Reverse(posts)
	return posts, nil
}

// GetPost returns one post or apperror.ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, found, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("feedstore: getting post %s: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("post", id)
	}
	return &post, nil
}

// IncrementPostStat adds one to a post counter and returns the updated post.
//
// The read and the write share one transaction, so increments from this
// process never lose updates. Writers in other processes sharing the database
// file are not coordinated with: last write wins.
func (s *Store) IncrementPostStat(ctx context.Context, id string, stat model.Stat) (*model.Post, error) {
	if !slices.Contains(model.Stats, stat) {
		return nil, apperror.ValidationFailed("stat", fmt.Sprintf("unknown post stat %q", stat))
	}

	post, err := s.posts.Update(ctx, id, func(p *model.Post) error {
		return p.Increment(stat)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("feedstore: incrementing %s on post %s: %w", stat, id, err)
	}

	s.logger.Debug("post stat incremented",
		slog.String("id", id),
		slog.String("stat", string(stat)),
		slog.Int("value", post.Count(stat)),
	)
	return &post, nil
}
