package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stash/pkg/adapters/file"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunRecordStoreContract(t, store)
}

func TestFileStore_KeysWithSeparators(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	key := "session:app/../x:abc"
	require.NoError(t, store.Insert(ctx, key, []byte("v")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "keys must map to a single flat file")

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFileStore_ScanSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "session:a", []byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "!!!.json"), []byte("x"), 0o644))

	records, err := store.Scan(ctx, "session:", "", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "session:a", records[0].Key)
}

func TestFileStore_ScanMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))

	records, err := store.Scan(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
