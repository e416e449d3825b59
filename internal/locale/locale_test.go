package locale

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

func TestNewRegistry_EmbeddedFrench(t *testing.T) {
	r, err := NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	lex := r.Get("fr")
	if lex == nil {
		t.Fatal("Expected fr lexicon")
	}
	if len(lex.Categories) != len(model.Categories) {
		t.Fatalf("Expected %d categories, got %d", len(model.Categories), len(lex.Categories))
	}
	for i, ck := range lex.Categories {
		if ck.Category != model.Categories[i] {
			t.Errorf("Category %d: expected %s, got %s", i, model.Categories[i], ck.Category)
		}
	}
	if lex.Sentinels.Date != model.DefaultDateSentinel {
		t.Errorf("Expected date sentinel %q, got %q", model.DefaultDateSentinel, lex.Sentinels.Date)
	}
	if len(lex.DateRegexps()) == 0 || len(lex.LocationRegexps()) == 0 {
		t.Error("Expected compiled date and location patterns")
	}
}

func TestRegistry_GetFallback(t *testing.T) {
	r, err := NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tests := []string{"fr", "FR", "fr-FR", "fr_CA", "unknown", "", "de"}
	for _, lang := range tests {
		if lex := r.Get(lang); lex == nil || lex.Code != "fr" {
			t.Errorf("Get(%q): expected fr lexicon", lang)
		}
	}
}

func TestNewRegistry_UnknownDefault(t *testing.T) {
	if _, err := NewRegistry("xx"); err == nil {
		t.Error("Expected error for default locale without lexicon")
	}
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()

	en := `code: en
categories:
  - category: auto
    keywords: ["car", "crash"]
date_patterns: ['(?i)yesterday']
location_patterns: ['(?i)on the highway']
hedging_markers: ["i think", "maybe"]
sentinels:
  date: "date unknown"
  location: "location unknown"
  damages: "damages to assess"
`
	if err := os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(en), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("code: xx\ndate_patterns: ['(']\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	loaded, err := r.LoadDir(dir)
	if err == nil {
		t.Error("Expected error for broken lexicon")
	}
	if len(loaded) != 1 || loaded[0] != "en" {
		t.Fatalf("Expected [en] loaded, got %v", loaded)
	}

	lex := r.Get("en-GB")
	if lex.Code != "en" {
		t.Fatalf("Expected en lexicon, got %s", lex.Code)
	}
	if lex.Sentinels.Date != "date unknown" {
		t.Errorf("Expected custom date sentinel, got %q", lex.Sentinels.Date)
	}

	codes := r.Codes()
	if strings.Join(codes, ",") != "en,fr" {
		t.Errorf("Expected codes [en fr], got %v", codes)
	}
}

func TestParse_RejectsUnknownCategory(t *testing.T) {
	_, err := Parse([]byte("code: zz\ncategories:\n  - category: boats\n    keywords: [boat]\n"))
	if err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestLexicon_Lower(t *testing.T) {
	r, _ := NewRegistry("fr")
	lex := r.Default()

	got := lex.Lower("J’AI eu un ÉTÉ Difficile")
	want := "j'ai eu un été difficile"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestContainsMarker(t *testing.T) {
	tests := []struct {
		text   string
		marker string
		want   bool
	}{
		{"pare-choc et phare", "et", true},
		{"pare-choc cassé, phare", ",", true},
		{"portière arrachée", "et", false},
		{"dommages aussi au coffre", "aussi", true},
		{"", "et", false},
		{"texte", "", false},
	}

	for _, tt := range tests {
		if got := ContainsMarker(tt.text, tt.marker); got != tt.want {
			t.Errorf("ContainsMarker(%q, %q): expected %v, got %v", tt.text, tt.marker, tt.want, got)
		}
	}
}

func TestCountHits(t *testing.T) {
	text := "accident de voiture sur la route"
	got := CountHits(text, []string{"voiture", "accident", "route", "avion"})
	if got != 3 {
		t.Errorf("Expected 3 hits, got %d", got)
	}
}

func TestWatcher_ReloadsNewLexicon(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := NewWatcher(dir, r, nil).Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	de := "code: de\nsentinels:\n  date: \"Datum unbekannt\"\n"
	if err := os.WriteFile(filepath.Join(dir, "de.yaml"), []byte(de), 0644); err != nil {
		t.Fatal(err)
	}
	// Ignored: not a lexicon file
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r.Get("de").Code == "de" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("Expected de lexicon after reload, got codes %v", r.Codes())
}

func TestWatcher_MissingDir(t *testing.T) {
	r, err := NewRegistry("fr")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if err := NewWatcher(filepath.Join(t.TempDir(), "nope"), r, nil).Start(context.Background()); err == nil {
		t.Error("Expected error watching a missing directory")
	}
}
