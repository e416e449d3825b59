package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/claimtriage/internal/claim"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a single SQLite table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS claims (
            id TEXT PRIMARY KEY,
            state TEXT NOT NULL,
            last_updated TEXT,
            fields_json TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_claims_state ON claims(state);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Get reads a record
func (s *SQLiteStore) Get(ctx context.Context, id string) (map[string]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT fields_json FROM claims WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query claim: %w", err)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parse claim %s: %w", id, err)
	}
	return fields, nil
}

// Put upserts a record
func (s *SQLiteStore) Put(ctx context.Context, id string, fields map[string]string) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO claims(id, state, last_updated, fields_json) VALUES(?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET state=excluded.state, last_updated=excluded.last_updated, fields_json=excluded.fields_json`,
		id, fields[claim.KeyState], fields[claim.KeyLastUpdated], string(data))
	if err != nil {
		return fmt.Errorf("upsert claim: %w", err)
	}
	return nil
}

// Delete removes a record
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

// List returns stored IDs in lexical order
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM claims ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claim id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
