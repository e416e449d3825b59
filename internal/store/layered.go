package store

import (
	"context"
	"errors"
)

// LayeredStore serves reads from memory and writes through to disk
type LayeredStore struct {
	memory *MemoryStore
	disk   *DiskStore
}

// NewLayeredStore creates a layered store backed by dir
func NewLayeredStore(dir string) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(),
		disk:   NewDiskStore(dir),
	}
}

// Get checks memory first, then disk
func (s *LayeredStore) Get(ctx context.Context, id string) (map[string]string, error) {
	if fields, err := s.memory.Get(ctx, id); err == nil {
		return fields, nil
	}

	fields, err := s.disk.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Promote to memory
	_ = s.memory.Put(ctx, id, fields)
	return fields, nil
}

// Put writes to disk, then memory
func (s *LayeredStore) Put(ctx context.Context, id string, fields map[string]string) error {
	if err := s.disk.Put(ctx, id, fields); err != nil {
		return err
	}
	return s.memory.Put(ctx, id, fields)
}

// Delete removes from both layers
func (s *LayeredStore) Delete(ctx context.Context, id string) error {
	_ = s.memory.Delete(ctx, id)
	return s.disk.Delete(ctx, id)
}

// List reads the durable layer
func (s *LayeredStore) List(ctx context.Context) ([]string, error) {
	return s.disk.List(ctx)
}

// Close closes both layers
func (s *LayeredStore) Close() error {
	return errors.Join(s.memory.Close(), s.disk.Close())
}
