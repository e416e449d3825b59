package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/claimtriage/internal/claim"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS claimtriage_claims (
        id TEXT PRIMARY KEY,
        state TEXT NOT NULL,
        last_updated TEXT,
        fields JSONB NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_claimtriage_claims_state ON claimtriage_claims(state)`,
}

// PostgresStore persists records in PostgreSQL through a pgx pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

// Get reads a record
func (s *PostgresStore) Get(ctx context.Context, id string) (map[string]string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT fields FROM claimtriage_claims WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query claim: %w", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse claim %s: %w", id, err)
	}
	return fields, nil
}

// Put upserts a record
func (s *PostgresStore) Put(ctx context.Context, id string, fields map[string]string) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO claimtriage_claims (id, state, last_updated, fields)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, last_updated = EXCLUDED.last_updated, fields = EXCLUDED.fields`,
		id, fields[claim.KeyState], fields[claim.KeyLastUpdated], data)
	if err != nil {
		return fmt.Errorf("upsert claim: %w", err)
	}
	return nil
}

// Delete removes a record
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM claimtriage_claims WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

// List returns stored IDs in lexical order
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM claimtriage_claims ORDER BY id`)
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

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
