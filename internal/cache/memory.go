package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds encoded answers in a go-cache table.
// A non-positive ttl keeps answers until Forget or Purge.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries live for ttl
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{items: gocache.New(ttl, janitorInterval(ttl))}
}

// janitorInterval sweeps short-lived tables more often
func janitorInterval(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < 10*time.Minute {
		return ttl
	}
	return 10 * time.Minute
}

// Lookup decodes the answer stored under key
func (c *MemoryCache) Lookup(key string) (*Answer, bool) {
	v, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	a, err := decodeAnswer(data)
	if err != nil {
		c.items.Delete(key)
		return nil, false
	}
	return a, true
}

// Save stores a; a zero ttl uses the table default
func (c *MemoryCache) Save(key string, a *Answer, ttl time.Duration) error {
	data, err := encodeAnswer(a)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Forget(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Purge() error {
	c.items.Flush()
	return nil
}

// Len returns the number of unexpired answers
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
