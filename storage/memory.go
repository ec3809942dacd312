package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// memoryStore implements Store using an in-memory map. Values are kept in
// their JSON form so reads observe the same round-trip semantics as the
// durable drivers.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore creates a non-durable Store. Useful for tests and for
// sessions that should not survive a restart.
func NewMemoryStore() Store {
	return &memoryStore{
		values: make(map[string][]byte),
	}
}

func (s *memoryStore) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = val
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string, out any) (bool, error) {
	s.mu.RLock()
	val, exists := s.values[key]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *memoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string][]byte)
	return nil
}
