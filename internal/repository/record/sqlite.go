package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	document TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps records as JSON documents in a sqlite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and ensures the users table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to an in-memory database gets its own empty database.
	if isMemoryDSN(path) {
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// isMemoryDSN reports whether path names a private in-memory database.
func isMemoryDSN(path string) bool {
	return path == "" ||
		path == ":memory:" ||
		strings.HasPrefix(path, "file::memory:") ||
		strings.Contains(path, "mode=memory")
}

// NewSQLiteStore wraps an open database and ensures the users table exists.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves a record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Document, error) {
	var raw string

	err := s.db.QueryRowContext(ctx, "SELECT document FROM users WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	var doc Document
	if err = json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}

	if doc == nil {
		doc = Document{}
	}

	return doc, nil
}

// Put inserts or replaces a record.
func (s *SQLiteStore) Put(ctx context.Context, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, document) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
		id, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to put record %s: %w", id, err)
	}

	return nil
}
