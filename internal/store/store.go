package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

// ErrNotFound is returned when no record exists for an ID
var ErrNotFound = errors.New("claim not found")

// ErrInvalidID is returned for IDs that cannot be used as storage keys
var ErrInvalidID = errors.New("invalid claim id")

// Store persists claim records in their flat key-value form.
// Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (map[string]string, error)
	Put(ctx context.Context, id string, fields map[string]string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open builds the store selected by cfg.Driver
func Open(ctx context.Context, cfg model.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "disk":
		if cfg.Path == "" {
			return nil, fmt.Errorf("disk store: path is required")
		}
		return NewDiskStore(cfg.Path), nil
	case "layered":
		if cfg.Path == "" {
			return nil, fmt.Errorf("layered store: path is required")
		}
		return NewLayeredStore(cfg.Path), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "claims.db")
		}
		return OpenSQLite(ctx, path)
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres store: dsn is required")
		}
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// SaveRecord flattens and persists a record
func SaveRecord(ctx context.Context, s Store, r *claim.Record) error {
	fields, err := claim.Flatten(r)
	if err != nil {
		return fmt.Errorf("flatten %s: %w", r.ID, err)
	}
	if err := s.Put(ctx, r.ID, fields); err != nil {
		return fmt.Errorf("save %s: %w", r.ID, err)
	}
	return nil
}

// LoadRecord reads and rebuilds a record
func LoadRecord(ctx context.Context, s Store, id string) (*claim.Record, error) {
	fields, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := claim.Unflatten(fields)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return r, nil
}

// ListRecords loads every stored record, optionally filtered by state
func ListRecords(ctx context.Context, s Store, state claim.State) ([]*claim.Record, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var records []*claim.Record
	for _, id := range ids {
		r, err := LoadRecord(ctx, s, id)
		if errors.Is(err, ErrNotFound) {
			continue // deleted since List
		}
		if err != nil {
			return nil, err
		}
		if state != "" && r.State != state {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// CountByState tallies stored records per state
func CountByState(ctx context.Context, s Store) (map[claim.State]int, error) {
	records, err := ListRecords(ctx, s, "")
	if err != nil {
		return nil, err
	}
	counts := make(map[claim.State]int)
	for _, r := range records {
		counts[r.State]++
	}
	return counts, nil
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func sorted(ids []string) []string {
	sort.Strings(ids)
	return ids
}
