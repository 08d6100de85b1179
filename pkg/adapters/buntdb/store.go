// Package buntdb stores session records in an embedded BuntDB database,
// either in a single append-only file or fully in memory.
package buntdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/tidwall/buntdb"
)

// InMemory opens a database that lives only for the process.
const InMemory = ":memory:"

// Store implements ports.RecordStore on BuntDB.
type Store struct {
	db  *buntdb.DB
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL lets BuntDB expire records on its own after ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Open opens the database file at path, creating its directory.
// An empty path or InMemory opens an in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = InMemory
	}
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	store := &Store{db: db}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

func (s *Store) setOptions() *buntdb.SetOptions {
	if s.ttl <= 0 {
		return nil
	}
	return &buntdb.SetOptions{Expires: true, TTL: s.ttl}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(key)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read from buntdb: %w", err)
	}
	return []byte(value), nil
}

// Insert creates key inside a single write transaction.
func (s *Store) Insert(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, false)
}

// Update replaces an existing key inside a single write transaction.
func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, true)
}

func (s *Store) put(key string, value []byte, mustExist bool) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(key)
		switch {
		case err == nil && !mustExist:
			return domain.ErrRecordExists
		case errors.Is(err, buntdb.ErrNotFound) && mustExist:
			return domain.ErrRecordNotFound
		case err != nil && !errors.Is(err, buntdb.ErrNotFound):
			return err
		}
		_, _, err = tx.Set(key, string(value), s.setOptions())
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrRecordExists) && !errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("failed to write to buntdb: %w", err)
	}
	return err
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from buntdb: %w", err)
	}
	return nil
}

// Scan walks the key index from prefix in ascending order.
func (s *Store) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	pivot := max(prefix, after)

	var records []ports.Record
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendGreaterOrEqual("", pivot, func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}
			if key == after {
				return true
			}
			records = append(records, ports.Record{Key: key, Value: []byte(value)})
			return limit <= 0 || len(records) < limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan buntdb: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
