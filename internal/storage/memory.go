package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps entries in process memory. Used with --no-cache and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	// Limit, when positive, rejects writes that would push the total of key+value lengths past it
	Limit int
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Limit > 0 {
		total := len(key) + len(value)
		for k, v := range s.entries {
			if k != key {
				total += len(k) + len(v)
			}
		}
		if total > s.Limit {
			return &QuotaError{Key: key, Size: total, Limit: s.Limit}
		}
	}
	s.entries[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
