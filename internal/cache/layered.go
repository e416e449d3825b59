package cache

import "time"

// LayeredCache answers from memory and falls back to disk, so repeated
// narratives survive process restarts
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache stacks memory over disk
func NewLayeredCache(memory *MemoryCache, disk *DiskCache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Lookup checks memory, then disk; disk hits are copied into memory
func (c *LayeredCache) Lookup(key string) (*Answer, bool) {
	if a, ok := c.memory.Lookup(key); ok {
		return a, true
	}
	a, ok := c.disk.Lookup(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Save(key, a, 0)
	return a, true
}

// Save writes through both layers
func (c *LayeredCache) Save(key string, a *Answer, ttl time.Duration) error {
	if err := c.memory.Save(key, a, ttl); err != nil {
		return err
	}
	return c.disk.Save(key, a, ttl)
}

func (c *LayeredCache) Forget(key string) error {
	_ = c.memory.Forget(key)
	return c.disk.Forget(key)
}

func (c *LayeredCache) Purge() error {
	_ = c.memory.Purge()
	return c.disk.Purge()
}
