// Package badger stores session records in an embedded Badger database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/dgraph-io/badger/v4"
)

// Store implements ports.RecordStore on Badger.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL lets Badger expire records on its own after ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Open opens a Badger database in dir. An empty dir opens an in-memory database.
func Open(dir string, opts ...Option) (*Store, error) {
	var options badger.Options
	if dir == "" {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		options = badger.DefaultOptions(dir)
	}
	options.Logger = nil

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	store := &Store{db: db}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read from badger: %w", err)
	}
	return value, nil
}

// Insert creates key inside a single transaction.
func (s *Store) Insert(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, false)
}

// Update replaces an existing key inside a single transaction.
func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, true)
}

func (s *Store) put(key string, value []byte, mustExist bool) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		switch {
		case err == nil && !mustExist:
			return domain.ErrRecordExists
		case errors.Is(err, badger.ErrKeyNotFound) && mustExist:
			return domain.ErrRecordNotFound
		case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		entry := badger.NewEntry([]byte(key), value)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil && !errors.Is(err, domain.ErrRecordExists) && !errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("failed to write to badger: %w", err)
	}
	return err
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from badger: %w", err)
	}
	return nil
}

// Scan iterates keys under prefix in ascending order.
func (s *Store) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	var records []ports.Record
	p := []byte(prefix)
	start := []byte(max(prefix, after))

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			if after != "" && string(item.Key()) == after {
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			records = append(records, ports.Record{Key: string(item.KeyCopy(nil)), Value: value})
			if limit > 0 && len(records) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan badger: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
