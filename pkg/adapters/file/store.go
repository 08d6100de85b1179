package file

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

const ext = ".json"

// Store implements ports.RecordStore on the local filesystem.
// Each record is one file named after the base64url form of its key.
type Store struct {
	BasePath string

	// mu serialises insert/update checks within the process.
	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".stash/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".stash", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, base64.RawURLEncoding.EncodeToString([]byte(key))+ext)
}

// Get reads the file stored for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	return data, nil
}

// Insert writes key unless a file already exists for it.
func (s *Store) Insert(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(key)); err == nil {
		return domain.ErrRecordExists
	}
	return s.write(key, value)
}

// Update rewrites the file for an existing key.
func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrRecordNotFound
		}
		return fmt.Errorf("failed to stat record file: %w", err)
	}
	return s.write(key, value)
}

// write persists value atomically: temp file, fsync, rename.
func (s *Store) write(key string, value []byte) error {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure record directory: %w", err)
	}

	destPath := s.path(key)

	// same directory so that the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename refuses to overwrite on Windows
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing record file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes the files for the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		err := os.Remove(s.path(key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete record file: %w", err)
		}
	}
	return nil
}

// Scan lists the directory and loads records whose key starts with prefix.
func (s *Store) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		if key := string(raw); strings.HasPrefix(key, prefix) && (after == "" || key > after) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	var records []ports.Record
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		value, err := s.Get(ctx, key)
		if errors.Is(err, domain.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return records, err
		}
		records = append(records, ports.Record{Key: key, Value: value})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
