// Package feedstore is the single entry point for feed persistence.
//
// A Store owns one document store handle and the two collections living in
// it, posts and users. Consumers (the auth controller, HTTP handlers, the CLI)
// only ever talk to this package; they never see collections or SQL.
//
//	auth.Controller ─┐
//	handler.*       ─┼─→ feedstore.Store ─→ docstore.Collection[Post|User] ─→ SQLite
//	cli.*           ─┘                    ↘ idgen.Generator
package feedstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/social-feed/internal/docstore"
	"github.com/sakif/social-feed/internal/idgen"
	"github.com/sakif/social-feed/internal/model"
)

// Store is the feed store facade. Build one with New; there is no package
// level instance, so tests can run against a fresh store each.
type Store struct {
	docs   *docstore.Store
	posts  *docstore.Collection[model.Post]
	users  *docstore.Collection[model.User]
	ids    *idgen.Generator
	seeds  []Credentials
	logger *slog.Logger
}

type options struct {
	logger *slog.Logger
	clock  idgen.Clock
	seeds  []Credentials
}

// Option customizes a Store.
type Option func(*options)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock replaces the wall clock used for identifiers and timestamps.
func WithClock(clock idgen.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithSeedUsers replaces the accounts SeedDefaults provisions.
func WithSeedUsers(seeds ...Credentials) Option {
	return func(o *options) { o.seeds = seeds }
}

// New returns a Store backed by the SQLite database at path. The database is
// not touched until Initialize or the first operation.
func New(path string, opts ...Option) (*Store, error) {
	o := options{seeds: DefaultSeedUsers()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	docs := docstore.New(path, Schema, o.logger)

	posts, err := docstore.NewCollection(docs, PostsCollection, postCodec)
	if err != nil {
		return nil, fmt.Errorf("feedstore: %w", err)
	}
	users, err := docstore.NewCollection(docs, UsersCollection, userCodec)
	if err != nil {
		return nil, fmt.Errorf("feedstore: %w", err)
	}

	return &Store{
		docs:   docs,
		posts:  posts,
		users:  users,
		ids:    idgen.New(o.clock),
		seeds:  o.seeds,
		logger: o.logger,
	}, nil
}

// Initialize opens the database and makes sure both collections and their
// indexes exist. It is cheap to call repeatedly: after the first success it
// returns immediately.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.docs.Open(ctx); err != nil {
		return fmt.Errorf("feedstore: initializing: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.docs.Close()
}

// Stats is a snapshot of collection sizes.
type Stats struct {
	Posts int `json:"posts"`
	Users int `json:"users"`
}

// Stats counts posts and users. Health checks use it as a storage probe.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	posts, err := s.posts.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("feedstore: counting posts: %w", err)
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("feedstore: counting users: %w", err)
	}
	return Stats{Posts: posts, Users: users}, nil
}
