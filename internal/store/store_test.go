package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/model"
)

// exerciseStore runs the shared contract against any backend
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	fields := map[string]string{claim.KeyID: "CLM-b", claim.KeyState: "received", "note": "été"}
	if err := s.Put(ctx, "CLM-b", fields); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	fields["note"] = "mutated"

	got, err := s.Get(ctx, "CLM-b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["note"] != "été" {
		t.Errorf("Expected stored copy to be unaffected, got %q", got["note"])
	}

	if err := s.Put(ctx, "CLM-a", map[string]string{claim.KeyID: "CLM-a", claim.KeyState: "escalated"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Overwrite
	if err := s.Put(ctx, "CLM-b", map[string]string{claim.KeyID: "CLM-b", claim.KeyState: "analyzing"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, _ = s.Get(ctx, "CLM-b")
	if got[claim.KeyState] != "analyzing" {
		t.Errorf("Expected overwritten state, got %q", got[claim.KeyState])
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if strings.Join(ids, ",") != "CLM-a,CLM-b" {
		t.Errorf("Expected [CLM-a CLM-b], got %v", ids)
	}

	if err := s.Delete(ctx, "CLM-a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "CLM-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "CLM-a"); err != nil {
		t.Errorf("Expected deleting a missing record to succeed, got %v", err)
	}

	if err := s.Put(ctx, "../escape", fields); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestDiskStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewDiskStore(dir))

	// Stray files are not records
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ids, err := NewDiskStore(dir).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected 1 record, got %v", ids)
	}
}

func TestDiskStoreMissingDir(t *testing.T) {
	ids, err := NewDiskStore(filepath.Join(t.TempDir(), "absent")).List(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("Expected empty list, got %v, %v", ids, err)
	}
}

func TestLayeredStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewLayeredStore(dir))

	// A fresh layered store reads what the first one persisted
	got, err := NewLayeredStore(dir).Get(context.Background(), "CLM-b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[claim.KeyState] != "analyzing" {
		t.Errorf("Expected persisted state, got %q", got[claim.KeyState])
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "claims.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CLAIMTRIAGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CLAIMTRIAGE_TEST_POSTGRES_DSN not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer s.Close()

	for _, id := range []string{"CLM-a", "CLM-b"} {
		_ = s.Delete(ctx, id)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     model.StoreConfig
		wantErr bool
	}{
		{model.StoreConfig{Driver: ""}, false},
		{model.StoreConfig{Driver: "memory"}, false},
		{model.StoreConfig{Driver: "disk", Path: dir}, false},
		{model.StoreConfig{Driver: "layered", Path: dir}, false},
		{model.StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "sqlite")}, false},
		{model.StoreConfig{Driver: "disk"}, true},
		{model.StoreConfig{Driver: "postgres"}, true},
		{model.StoreConfig{Driver: "redis"}, true},
	}

	for _, tt := range tests {
		s, err := Open(ctx, tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%+v): expected error=%v, got %v", tt.cfg, tt.wantErr, err)
			continue
		}
		if s != nil {
			s.Close()
		}
	}
}

func TestRecordHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }

	escalated := claim.New("CLM-1", now)
	escalated.Escalate("High complexity (score: 70.0)", "expert")
	autonomous := claim.New("CLM-2", now)
	autonomous.ChangeState(claim.StateAutonomous, "simple")

	for _, r := range []*claim.Record{escalated, autonomous} {
		if err := SaveRecord(ctx, s, r); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	loaded, err := LoadRecord(ctx, s, "CLM-1")
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if !loaded.IsEscalated || loaded.AssignedReviewer != "expert" {
		t.Errorf("Unexpected loaded record: %+v", loaded)
	}

	if _, err := LoadRecord(ctx, s, "CLM-9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	records, err := ListRecords(ctx, s, claim.StateEscalated)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "CLM-1" {
		t.Errorf("Expected only CLM-1, got %d records", len(records))
	}

	counts, err := CountByState(ctx, s)
	if err != nil {
		t.Fatalf("CountByState failed: %v", err)
	}
	if counts[claim.StateEscalated] != 1 || counts[claim.StateAutonomous] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}
