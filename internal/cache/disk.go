package cache

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache keeps one JSON file per answer, sharded by the first two
// characters of the key: <dir>/ab/abcdef....json
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache under dir. A non-positive ttl never expires.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

type diskEntry struct {
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Answer    *Answer   `json:"answer"`
}

// Lookup reads the answer stored under key, dropping it once expired
func (c *DiskCache) Lookup(key string) (*Answer, bool) {
	path, err := c.path(key)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Answer == nil {
		_ = os.Remove(path)
		return nil, false
	}
	if !entry.ExpiresAt.IsZero() && c.now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Answer, true
}

// Save writes a atomically; a zero ttl uses the cache default
func (c *DiskCache) Save(key string, a *Answer, ttl time.Duration) error {
	if a == nil {
		return fmt.Errorf("nil answer")
	}
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	entry := diskEntry{Answer: a}
	if ttl > 0 {
		entry.ExpiresAt = c.now().Add(ttl)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}

	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Readers never see a partial file
	tmp, err := os.CreateTemp(shard, ".answer-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (c *DiskCache) Forget(key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Purge removes every answer file but leaves unrelated files in dir alone
func (c *DiskCache) Purge() error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			return os.Remove(path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// path maps a key to its shard file. Keys are hex digests; anything that
// could escape dir is rejected.
func (c *DiskCache) path(key string) (string, error) {
	if len(key) < 3 || strings.ContainsAny(key, `/\.`) {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(c.dir, key[:2], key+".json"), nil
}
