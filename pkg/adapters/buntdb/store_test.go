package buntdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/stash/pkg/adapters/buntdb"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuntDBStore_Contract(t *testing.T) {
	store, err := buntdb.Open(buntdb.InMemory)
	require.NoError(t, err)
	defer store.Close()

	ports.RunRecordStoreContract(t, store)
}

func TestBuntDBStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	ctx := context.Background()

	store, err := buntdb.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, "session:app:a", []byte("payload")))
	require.NoError(t, store.Close())

	reopened, err := buntdb.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "session:app:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}
