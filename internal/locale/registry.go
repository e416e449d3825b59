package locale

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicons/*.yaml
var builtin embed.FS

// Registry maps locale codes to lexicons. It is safe for concurrent use;
// a reload swaps lexicons atomically per code.
type Registry struct {
	mu          sync.RWMutex
	lexicons    map[string]*Lexicon
	defaultCode string
}

// NewRegistry returns a registry preloaded with the embedded lexicons
func NewRegistry(defaultCode string) (*Registry, error) {
	if defaultCode == "" {
		defaultCode = "fr"
	}
	r := &Registry{
		lexicons:    make(map[string]*Lexicon),
		defaultCode: strings.ToLower(defaultCode),
	}

	entries, err := builtin.ReadDir("lexicons")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded lexicons: %w", err)
	}
	for _, e := range entries {
		data, err := builtin.ReadFile("lexicons/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded lexicon %s: %w", e.Name(), err)
		}
		lex, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("embedded lexicon %s: %w", e.Name(), err)
		}
		r.Register(lex)
	}

	if _, ok := r.lexicons[r.defaultCode]; !ok {
		return nil, fmt.Errorf("no lexicon for default locale %q", r.defaultCode)
	}
	return r, nil
}

// Parse decodes and compiles a YAML lexicon
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if err := lex.compile(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// Register adds or replaces a lexicon
func (r *Registry) Register(lex *Lexicon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lexicons[lex.Code] = lex
}

// LoadDir loads every *.yaml / *.yml file in dir, overriding lexicons with the same code.
// Files that fail to parse are reported but do not prevent the others from loading.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	var loaded []string
	var errs []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", filepath.Base(f), err))
			continue
		}
		lex, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", filepath.Base(f), err))
			continue
		}
		r.Register(lex)
		loaded = append(loaded, lex.Code)
	}

	if len(errs) > 0 {
		return loaded, fmt.Errorf("failed to load lexicons: %s", strings.Join(errs, "; "))
	}
	return loaded, nil
}

// Get returns the lexicon for a language code.
// "fr-FR" falls back to "fr"; unknown languages fall back to the default locale.
func (r *Registry) Get(lang string) *Lexicon {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang = strings.ToLower(strings.TrimSpace(lang))
	if lex, ok := r.lexicons[lang]; ok {
		return lex
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		if lex, ok := r.lexicons[lang[:i]]; ok {
			return lex
		}
	}
	return r.lexicons[r.defaultCode]
}

// Default returns the default lexicon
func (r *Registry) Default() *Lexicon {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lexicons[r.defaultCode]
}

// Codes lists registered locale codes, sorted
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.lexicons))
	for c := range r.lexicons {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
