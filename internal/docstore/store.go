package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/puthype/internal/bus"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store is a collection-scoped JSON document store on top of SQLite.
// Committed writes are announced on the bus so subscriptions can re-query.
type Store struct {
	db  *DB
	bus *bus.Bus
	now func() time.Time
}

// New creates a store over an opened, migrated database. b may be nil,
// in which case subscriptions only ever deliver their first snapshot.
func New(db *DB, b *bus.Bus) *Store {
	return &Store{db: db, bus: b, now: time.Now}
}

// DB returns the underlying database.
func (s *Store) DB() *DB { return s.db }

// Collection returns a handle on the named collection outside any transaction.
func (s *Store) Collection(name string) *Collection {
	return &Collection{name: name, q: s.db.DB, store: s}
}

func (s *Store) publish(changes map[string][]string) {
	if s.bus == nil {
		return
	}
	for coll, ids := range changes {
		s.bus.PublishDocChange(coll, ids...)
	}
}

// Tx is a store transaction. Changes are published after commit.
type Tx struct {
	tx      *sql.Tx
	store   *Store
	changes map[string][]string
}

// Collection returns a handle on the named collection bound to the transaction.
func (t *Tx) Collection(name string) *Collection {
	return &Collection{name: name, q: t.tx, store: t.store, tx: t}
}

// SQL exposes the transaction to repositories that keep their own tables.
func (t *Tx) SQL() DBTX { return t.tx }

func (t *Tx) record(collection, id string) {
	t.changes[collection] = append(t.changes[collection], id)
}

// RunInTx runs fn inside one IMMEDIATE transaction and commits when fn
// returns nil. Panics roll back and are rethrown.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &Tx{tx: sqlTx, store: s, changes: make(map[string][]string)}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		if err = sqlTx.Commit(); err != nil {
			err = fmt.Errorf("commit tx: %w", err)
			return
		}
		s.publish(tx.changes)
	}()

	return fn(ctx, tx)
}

// Collection is a handle on one collection, optionally inside a transaction.
type Collection struct {
	name  string
	q     DBTX
	store *Store
	tx    *Tx
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

func (c *Collection) changed(id string) {
	if c.tx != nil {
		c.tx.record(c.name, id)
		return
	}
	c.store.publish(map[string][]string{c.name: {id}})
}

// Create inserts data under a new random id and returns the id.
func (c *Collection) Create(ctx context.Context, data any) (string, error) {
	id := uuid.NewString()
	if err := c.Insert(ctx, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Insert stores data under id, failing with ErrAlreadyExists if it is taken.
func (c *Collection) Insert(ctx context.Context, id string, data any) error {
	body, err := marshalBody(data)
	if err != nil {
		return err
	}
	now := c.store.now().UnixMilli()
	_, err = c.q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		c.name, id, string(body), now, now)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s/%s: %w", c.name, id, ErrAlreadyExists)
		}
		return fmt.Errorf("insert %s/%s: %w", c.name, id, err)
	}
	c.changed(id)
	return nil
}

// Set writes data under id, replacing any existing body.
func (c *Collection) Set(ctx context.Context, id string, data any) error {
	body, err := marshalBody(data)
	if err != nil {
		return err
	}
	now := c.store.now().UnixMilli()
	_, err = c.q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			version = documents.version + 1,
			updated_at = excluded.updated_at`,
		c.name, id, string(body), now, now)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", c.name, id, err)
	}
	c.changed(id)
	return nil
}

// Get returns the document with id or ErrNotFound.
func (c *Collection) Get(ctx context.Context, id string) (*Document, error) {
	var d Document
	var data string
	err := c.q.QueryRowContext(ctx, `
		SELECT seq, id, data, version, created_at, updated_at
		FROM documents WHERE collection = ? AND id = ?`, c.name, id).
		Scan(&d.Seq, &d.ID, &data, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	d.Data = []byte(data)
	return &d, nil
}

// Update merges fields into the document atomically.
func (c *Collection) Update(ctx context.Context, id string, fields Fields) error {
	return c.update(ctx, id, fields, 0)
}

// UpdateIfVersion merges fields only if the stored version still equals
// version, failing with ErrVersionConflict otherwise.
func (c *Collection) UpdateIfVersion(ctx context.Context, id string, version int64, fields Fields) error {
	if version <= 0 {
		return fmt.Errorf("update %s/%s: version must be positive", c.name, id)
	}
	return c.update(ctx, id, fields, version)
}

func (c *Collection) update(ctx context.Context, id string, fields Fields, version int64) error {
	if c.tx == nil {
		return c.store.RunInTx(ctx, func(ctx context.Context, tx *Tx) error {
			return tx.Collection(c.name).update(ctx, id, fields, version)
		})
	}

	doc, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if version > 0 && doc.Version != version {
		return fmt.Errorf("%s/%s at version %d, want %d: %w", c.name, id, doc.Version, version, ErrVersionConflict)
	}
	body, err := applyFields(doc.Data, fields)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	_, err = c.q.ExecContext(ctx, `
		UPDATE documents SET data = ?, version = version + 1, updated_at = ?
		WHERE collection = ? AND id = ?`,
		string(body), c.store.now().UnixMilli(), c.name, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	c.changed(id)
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (c *Collection) Delete(ctx context.Context, id string) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		c.changed(id)
	}
	return nil
}

// DeleteMany removes every listed document and returns how many existed.
func (c *Collection) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if c.tx == nil {
		var n int
		err := c.store.RunInTx(ctx, func(ctx context.Context, tx *Tx) error {
			var err error
			n, err = tx.Collection(c.name).DeleteMany(ctx, ids)
			return err
		})
		return n, err
	}
	deleted := 0
	for _, id := range ids {
		res, err := c.q.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
		if err != nil {
			return deleted, fmt.Errorf("delete %s/%s: %w", c.name, id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted++
			c.changed(id)
		}
	}
	return deleted, nil
}

// Query returns the documents matching q.
func (c *Collection) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := q.build(c.name)
	if err != nil {
		return nil, err
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		var data string
		if err := rows.Scan(&d.Seq, &d.ID, &data, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Data = []byte(data)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Count returns the number of documents in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}
