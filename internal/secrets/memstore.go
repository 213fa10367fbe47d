package secrets

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory Store. Used in tests and by hosts that keep
// credentials in a platform keychain of their own.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]string{}}
}

func (s *MemStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.entries[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return val, nil
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value

	return nil
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *MemStore) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = map[string]string{}

	return nil
}

// Len reports the number of stored keys. Test helper.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
