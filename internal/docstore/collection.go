package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
)

// Codec tells a Collection how to find the primary key and the indexed
// values of a record.
type Codec[T any] struct {
	Key     func(T) string
	Indexes map[string]func(T) any
}

// Collection is a typed view over one collection of a Store. Records are
// stored as JSON, so T must round-trip through encoding/json.
type Collection[T any] struct {
	store *Store
	spec  CollectionSpec
	codec Codec[T]

	insertSQL string
	updateSQL string
}

// NewCollection binds a collection declared in the store's schema to a codec.
// Every declared index needs an extractor in the codec.
func NewCollection[T any](store *Store, name string, codec Codec[T]) (*Collection[T], error) {
	spec, ok := store.schema.Collection(name)
	if !ok {
		return nil, fmt.Errorf("docstore: collection %q not declared in schema", name)
	}
	if codec.Key == nil {
		return nil, fmt.Errorf("docstore: collection %q: codec has no key function", name)
	}
	for _, ix := range spec.Indexes {
		if codec.Indexes[ix.Name] == nil {
			return nil, fmt.Errorf("docstore: collection %q: codec has no extractor for index %q", name, ix.Name)
		}
	}

	cols := []string{"id", "doc"}
	sets := []string{"doc = ?"}
	for _, ix := range spec.Indexes {
		col := fmt.Sprintf("%q", indexColumn(ix.Name))
		cols = append(cols, col)
		sets = append(sets, col+" = ?")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	return &Collection[T]{
		store:     store,
		spec:      spec,
		codec:     codec,
		insertSQL: fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, name, strings.Join(cols, ", "), marks),
		updateSQL: fmt.Sprintf(`UPDATE %q SET %s WHERE id = ?`, name, strings.Join(sets, ", ")),
	}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.spec.Name
}

// execer is the subset shared by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Add inserts a new record. A collision on the primary key or on any unique
// index fails with apperror.ErrDuplicateKey naming the colliding field.
func (c *Collection[T]) Add(ctx context.Context, rec T) error {
	conn, err := c.store.handle(ctx)
	if err != nil {
		return err
	}

	key := c.codec.Key(rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("docstore: encoding %s record %s: %w", c.spec.Name, key, err)
	}

	args := append([]any{key, string(doc)}, c.indexValues(rec)...)
	if _, err := conn.ExecContext(ctx, c.insertSQL, args...); err != nil {
		return c.writeError("add", err)
	}
	return nil
}

// Get returns the record stored under key. Absence is reported through the
// boolean, never as an error.
func (c *Collection[T]) Get(ctx context.Context, key string) (T, bool, error) {
	conn, err := c.store.handle(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return c.get(ctx, conn, key)
}

func (c *Collection[T]) get(ctx context.Context, q execer, key string) (T, bool, error) {
	var doc string
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, c.spec.Name),
		key,
	).Scan(&doc)
	return c.decodeRow(doc, err)
}

// GetByIndex returns the first record, in insertion order, whose indexed
// value equals value. On a unique index there is at most one.
func (c *Collection[T]) GetByIndex(ctx context.Context, index string, value any) (T, bool, error) {
	var zero T
	if _, ok := c.spec.Index(index); !ok {
		return zero, false, fmt.Errorf("docstore: collection %s has no index %q", c.spec.Name, index)
	}

	conn, err := c.store.handle(ctx)
	if err != nil {
		return zero, false, err
	}

	var doc string
	err = conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q WHERE %q = ? ORDER BY rowid LIMIT 1`, c.spec.Name, indexColumn(index)),
		value,
	).Scan(&doc)
	return c.decodeRow(doc, err)
}

// GetAll returns every record ordered ascending by the named index, ties
// broken by insertion order. An empty index name orders by primary key.
func (c *Collection[T]) GetAll(ctx context.Context, orderByIndex string) ([]T, error) {
	order := "id"
	if orderByIndex != "" {
		if _, ok := c.spec.Index(orderByIndex); !ok {
			return nil, fmt.Errorf("docstore: collection %s has no index %q", c.spec.Name, orderByIndex)
		}
		order = fmt.Sprintf("%q", indexColumn(orderByIndex))
	}

	conn, err := c.store.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q ORDER BY %s ASC, rowid ASC`, c.spec.Name, order),
	)
	if err != nil {
		return nil, apperror.StorageUnavailable("list "+c.spec.Name, err)
	}
	defer rows.Close()

	recs := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, apperror.StorageUnavailable("scan "+c.spec.Name, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, apperror.StorageUnavailable("decode "+c.spec.Name, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageUnavailable("iterate "+c.spec.Name, err)
	}

	return recs, nil
}

// Put replaces an existing record wholesale. It fails with
// apperror.ErrNotFound when no record has the same primary key.
func (c *Collection[T]) Put(ctx context.Context, rec T) error {
	conn, err := c.store.handle(ctx)
	if err != nil {
		return err
	}
	return c.put(ctx, conn, rec)
}

func (c *Collection[T]) put(ctx context.Context, q execer, rec T) error {
	key := c.codec.Key(rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("docstore: encoding %s record %s: %w", c.spec.Name, key, err)
	}

	args := append([]any{string(doc)}, c.indexValues(rec)...)
	args = append(args, key)

	result, err := q.ExecContext(ctx, c.updateSQL, args...)
	if err != nil {
		return c.writeError("put", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperror.StorageUnavailable("put "+c.spec.Name, err)
	}
	if n == 0 {
		return apperror.NotFound(c.spec.Name, key)
	}
	return nil
}

// Update reads the record under key, hands it to fn and writes the result
// back, all inside one transaction. fn must not change the primary key. If fn
// returns an error nothing is written and the error is returned unchanged.
//
// Atomicity holds within this process only: another process writing the same
// database file can still overwrite the result afterwards.
func (c *Collection[T]) Update(ctx context.Context, key string, fn func(*T) error) (T, error) {
	var zero T

	conn, err := c.store.handle(ctx)
	if err != nil {
		return zero, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return zero, apperror.StorageUnavailable("begin "+c.spec.Name, err)
	}
	defer tx.Rollback()

	rec, found, err := c.get(ctx, tx, key)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, apperror.NotFound(c.spec.Name, key)
	}

	if err := fn(&rec); err != nil {
		return zero, err
	}
	if got := c.codec.Key(rec); got != key {
		return zero, fmt.Errorf("docstore: update of %s %s changed its key to %s", c.spec.Name, key, got)
	}

	if err := c.put(ctx, tx, rec); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, apperror.StorageUnavailable("commit "+c.spec.Name, err)
	}
	return rec, nil
}

// Count returns the number of records in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	conn, err := c.store.handle(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, c.spec.Name)).Scan(&n); err != nil {
		return 0, apperror.StorageUnavailable("count "+c.spec.Name, err)
	}
	return n, nil
}

func (c *Collection[T]) indexValues(rec T) []any {
	vals := make([]any, 0, len(c.spec.Indexes))
	for _, ix := range c.spec.Indexes {
		vals = append(vals, c.codec.Indexes[ix.Name](rec))
	}
	return vals
}

func (c *Collection[T]) decodeRow(doc string, err error) (T, bool, error) {
	var rec T
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, false, nil
		}
		return rec, false, apperror.StorageUnavailable("read "+c.spec.Name, err)
	}
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, false, apperror.StorageUnavailable("decode "+c.spec.Name, err)
	}
	return rec, true, nil
}

// writeError maps a failed INSERT/UPDATE to a duplicate-key failure when a
// uniqueness constraint fired, and to storage-unavailable otherwise.
func (c *Collection[T]) writeError(op string, err error) error {
	if field, ok := uniqueViolation(err, c.spec.Name); ok {
		return apperror.DuplicateKey(c.spec.Name, field)
	}
	return apperror.StorageUnavailable(op+" "+c.spec.Name, err)
}
