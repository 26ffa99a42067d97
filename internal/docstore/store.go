// Package docstore is a small embedded document store on top of SQLite.
//
// A Store owns one database file and a declared Schema. Each collection in the
// schema becomes one table holding JSON documents keyed by a string primary
// key, plus one projected column per secondary index:
//
//	CREATE TABLE "users" (id TEXT PRIMARY KEY, doc TEXT NOT NULL, "ix_email");
//	CREATE UNIQUE INDEX "users_email" ON "users"("ix_email");
//
// The schema version is kept in PRAGMA user_version. Opening a store whose
// version is behind creates whatever tables, index columns and indexes are
// missing and then records the new version; opening a current store does no
// schema work at all.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the store needs no
// C toolchain. The pool is pinned to a single connection: SQLite allows one
// writer anyway, ":memory:" databases live and die with their connection, and
// serializing every statement makes each read-modify-write transaction atomic
// within the process.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/sakif/social-feed/internal/apperror"

	_ "modernc.org/sqlite"
)

// IndexSpec declares a secondary index. Unique indexes reject a second record
// carrying the same indexed value.
type IndexSpec struct {
	Name   string
	Unique bool
}

// CollectionSpec declares one collection and its secondary indexes.
type CollectionSpec struct {
	Name    string
	Indexes []IndexSpec
}

// Index returns the named index spec.
func (c CollectionSpec) Index(name string) (IndexSpec, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexSpec{}, false
}

// Schema is the full set of collections at a given version. Version must be
// raised whenever a collection or index is added.
type Schema struct {
	Version     int
	Collections []CollectionSpec
}

// Collection returns the named collection spec.
func (s Schema) Collection(name string) (CollectionSpec, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionSpec{}, false
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validate checks that every name can be used unescaped inside quoted SQL
// identifiers and that nothing is declared twice.
func (s Schema) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("docstore: schema version must be >= 1, got %d", s.Version)
	}
	seen := make(map[string]bool)
	for _, c := range s.Collections {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("docstore: invalid collection name %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("docstore: collection %q declared twice", c.Name)
		}
		seen[c.Name] = true

		idx := make(map[string]bool)
		for _, ix := range c.Indexes {
			if !identRe.MatchString(ix.Name) {
				return fmt.Errorf("docstore: invalid index name %q on %s", ix.Name, c.Name)
			}
			if idx[ix.Name] {
				return fmt.Errorf("docstore: index %q declared twice on %s", ix.Name, c.Name)
			}
			idx[ix.Name] = true
		}
	}
	return nil
}

// Store is a lazily opened SQLite database holding the collections of one
// Schema. It is safe for concurrent use.
type Store struct {
	path   string
	schema Schema
	logger *slog.Logger

	mu   sync.Mutex
	conn *sql.DB
}

// New returns an unopened Store. Nothing touches the disk until Open, or the
// first collection operation, runs.
//
// path examples:
//   - "data/feed.db" → file-backed, survives restarts
//   - ":memory:"     → private in-memory database, gone on Close
func New(path string, schema Schema, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		path:   path,
		schema: schema,
		logger: logger,
	}
}

// Schema returns the schema the store was declared with.
func (s *Store) Schema() Schema {
	return s.schema
}

// Open establishes the database handle and brings the schema up to date.
//
// Open is memoized: once it succeeds, later calls return immediately.
// Overlapping calls queue on a mutex, so schema creation runs once and every
// caller observes the same ready handle. A failed Open leaves the store
// closed and the next call tries again.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// handle returns the open connection pool, opening it first if needed.
func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn, nil
	}

	if err := s.schema.validate(); err != nil {
		return nil, err
	}

	conn, err := s.open(ctx)
	if err != nil {
		s.logger.Error("failed to open document store",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.StorageUnavailable("open", err)
	}

	s.conn = conn
	return conn, nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("docstore: opening database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: pinging database: %w", err)
	}

	if err := applyPragmas(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	if err := s.upgrade(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: upgrading schema: %w", err)
	}

	return conn, nil
}

// applyPragmas sets connection-level configuration. On ":memory:" databases
// journal_mode reports "memory" instead of switching to WAL, which is fine.
func applyPragmas(ctx context.Context, conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("docstore: executing %q: %w", pragma, err)
		}
	}
	return nil
}

// upgrade creates every missing collection table, index column and index when
// the on-disk version is behind the declared one. All DDL here is idempotent,
// so a concurrent upgrade from another process cannot break it.
func (s *Store) upgrade(ctx context.Context, conn *sql.DB) error {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}
	if version >= s.schema.Version {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upgrade: %w", err)
	}
	defer tx.Rollback()

	for _, c := range s.schema.Collections {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %q (id TEXT PRIMARY KEY, doc TEXT NOT NULL)`, c.Name,
		)); err != nil {
			return fmt.Errorf("creating collection %s: %w", c.Name, err)
		}

		for _, ix := range c.Indexes {
			if err := addColumnIfNotExists(ctx, tx, c.Name, indexColumn(ix.Name)); err != nil {
				return fmt.Errorf("adding index column %s.%s: %w", c.Name, ix.Name, err)
			}

			unique := ""
			if ix.Unique {
				unique = "UNIQUE "
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				`CREATE %sINDEX IF NOT EXISTS %q ON %q(%q)`,
				unique, c.Name+"_"+ix.Name, c.Name, indexColumn(ix.Name),
			)); err != nil {
				return fmt.Errorf("creating index %s.%s: %w", c.Name, ix.Name, err)
			}
		}
	}

	// PRAGMA does not accept bound parameters; Version is an int.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", s.schema.Version)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upgrade: %w", err)
	}

	s.logger.Info("document store schema upgraded",
		slog.String("path", s.path),
		slog.Int("from", version),
		slog.Int("to", s.schema.Version),
	)
	return nil
}

// addColumnIfNotExists adds an untyped column unless it is already there.
// ALTER TABLE errors on an existing column, so pragma_table_info is checked
// first.
func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column string) error {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %q`, table, column))
	return err
}

// Version reports the schema version recorded in the database.
func (s *Store) Version(ctx context.Context) (int, error) {
	conn, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, apperror.StorageUnavailable("read version", err)
	}
	return version, nil
}

// Close releases the database handle. A closed store reopens on next use.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func indexColumn(index string) string {
	return "ix_" + index
}
