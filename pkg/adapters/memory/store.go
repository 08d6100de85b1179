package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// Store implements ports.RecordStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return slices.Clone(value), nil
}

// Insert creates key.
func (s *Store) Insert(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		return domain.ErrRecordExists
	}
	s.data[key] = slices.Clone(value)
	return nil
}

// Update replaces the value of an existing key.
func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return domain.ErrRecordNotFound
	}
	s.data[key] = slices.Clone(value)
	return nil
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Scan returns records under prefix in key order.
func (s *Store) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []ports.Record
	for _, key := range slices.Sorted(maps.Keys(s.data)) {
		if !strings.HasPrefix(key, prefix) || (after != "" && key <= after) {
			continue
		}
		records = append(records, ports.Record{Key: key, Value: slices.Clone(s.data[key])})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
