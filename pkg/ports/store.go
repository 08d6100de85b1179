package ports

import (
	"context"
)

// Record is a raw key/value pair returned by RecordStore.Scan.
type Record struct {
	Key   string
	Value []byte
}

// RecordStore is the storage medium behind the default session handler.
// Implementations must be safe for concurrent use by independent requests.
type RecordStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrRecordNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Insert creates key. Returns domain.ErrRecordExists if it is already present.
	Insert(ctx context.Context, key string, value []byte) error

	// Update replaces the value of an existing key.
	// Returns domain.ErrRecordNotFound if the key does not exist.
	Update(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Scan returns up to limit records whose key starts with prefix and sorts
	// strictly after after, in ascending key order. An empty after starts at
	// the beginning of the prefix. A limit <= 0 means no limit.
	Scan(ctx context.Context, prefix, after string, limit int) ([]Record, error)

	// Close releases the underlying resources.
	Close() error
}
