package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
)

// Answer is a delegate answer kept for reuse
type Answer struct {
	Delegate string             `json:"delegate"`
	Locale   string             `json:"locale"`
	Raw      model.RawStructure `json:"raw"`
	StoredAt time.Time          `json:"stored_at"`
}

// Cache keeps delegate answers by Key. Every Lookup returns a private copy,
// so callers may modify what they get.
type Cache interface {
	Lookup(key string) (*Answer, bool)
	Save(key string, a *Answer, ttl time.Duration) error
	Forget(key string) error
	Purge() error
}

// Key derives the cache key of a delegate answer.
// The delegate and locale are part of the key: the same narrative may be
// answered differently by another model or read with another lexicon.
func Key(delegate, locale, text string) string {
	h := sha256.New()
	h.Write([]byte(delegate))
	h.Write([]byte{0})
	h.Write([]byte(locale))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory only, or memory over disk
// when a disk directory is configured. A disabled cache returns nil.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.DiskDir == "" {
		return NewMemoryCache(cfg.MemoryTTL)
	}
	return NewLayeredCache(NewMemoryCache(cfg.MemoryTTL), NewDiskCache(cfg.DiskDir, cfg.DiskTTL))
}

func encodeAnswer(a *Answer) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nil answer")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	return data, nil
}

func decodeAnswer(data []byte) (*Answer, error) {
	var a Answer
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return &a, nil
}
