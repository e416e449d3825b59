package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps records in process memory. Records never expire.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns a copy of the stored fields
func (s *MemoryStore) Get(_ context.Context, id string) (map[string]string, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	return copyFields(val.(map[string]string)), nil
}

// Put stores a copy of fields
func (s *MemoryStore) Put(_ context.Context, id string, fields map[string]string) error {
	if err := validateID(id); err != nil {
		return err
	}
	s.cache.Set(id, copyFields(fields), gocache.NoExpiration)
	return nil
}

// Delete removes a record; deleting a missing record is not an error
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// List returns stored IDs in lexical order
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	items := s.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return sorted(ids), nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
