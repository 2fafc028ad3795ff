// Package store provides document persistence for projects and analysis
// results over database/sql. Documents are JSON bodies addressed by
// (collection, id), the shape of a document-oriented record store.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a stored JSON body with its id.
type Document struct {
	ID        string
	Body      json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the document body into out.
func (d Document) Decode(out any) error {
	return json.Unmarshal(d.Body, out)
}

// Store wraps a SQL database holding one documents table.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	return Open("sqlite", dbPath)
}

// Open connects to the database selected by driver ("sqlite", "postgres"
// or "mysql") and ensures the documents table exists.
func Open(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	dsn, err = d.prepareDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse %s dsn: %w", driver, err)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if d.singleConn {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the document at (collection, id) into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	doc, err := s.get(ctx, s.db, collection, id, false)
	if err != nil {
		return err
	}
	if err := doc.Decode(out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set replaces the document at (collection, id) with doc encoded as JSON.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := s.put(ctx, s.db, collection, id, body); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Merge overwrites the given top-level fields of the document at
// (collection, id), creating it when absent. The read-modify-write runs in
// one transaction.
func (s *Store) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	current := map[string]json.RawMessage{}
	doc, err := s.get(ctx, tx, collection, id, true)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(doc.Body, &current); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
	}

	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode field %q: %w", k, err)
		}
		current[k] = raw
	}
	body, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := s.put(ctx, tx, collection, id, body); err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// Delete removes the document at (collection, id). Deleting a missing
// document is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`),
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Where returns the documents of collection whose top-level field equals
// value, ordered by id.
func (s *Store) Where(ctx context.Context, collection, field string, value any) ([]Document, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind(`SELECT id, body, updated_at FROM documents WHERE collection = ? ORDER BY id`),
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d    Document
			body string
		)
		if err := rows.Scan(&d.ID, &body, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var fieldsByName map[string]json.RawMessage
		if err := json.Unmarshal([]byte(body), &fieldsByName); err != nil {
			continue
		}
		if got, ok := fieldsByName[field]; ok && jsonEqual(got, want) {
			d.Body = json.RawMessage(body)
			docs = append(docs, d)
		}
	}
	return docs, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) get(ctx context.Context, q querier, collection, id string, forUpdate bool) (Document, error) {
	query := `SELECT body, updated_at FROM documents WHERE collection = ? AND id = ?`
	if forUpdate {
		query += s.dialect.lockSuffix
	}

	d := Document{ID: id}
	var body string
	err := q.QueryRowContext(ctx, s.dialect.rebind(query), collection, id).Scan(&body, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	d.Body = json.RawMessage(body)
	return d, nil
}

func (s *Store) put(ctx context.Context, q querier, collection, id string, body []byte) error {
	_, err := q.ExecContext(ctx, s.dialect.rebind(s.dialect.upsert),
		collection, id, string(body), s.now().UTC(),
	)
	return err
}

func jsonEqual(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
