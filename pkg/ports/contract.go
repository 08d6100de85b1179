package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests to verify that a RecordStore
// implementation adheres to the defined interface contract.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	prefix := "contract:" + time.Now().Format("20060102150405.000000000") + ":"

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Insert and Get", func(t *testing.T) {
		key := prefix + "insert"
		require.NoError(t, store.Insert(ctx, key, []byte("v1")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		err = store.Insert(ctx, key, []byte("v2"))
		assert.ErrorIs(t, err, domain.ErrRecordExists, "second insert must not overwrite")

		got, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("Update", func(t *testing.T) {
		key := prefix + "update"
		err := store.Update(ctx, key, []byte("nope"))
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "update must not create")

		require.NoError(t, store.Insert(ctx, key, []byte("v1")))
		require.NoError(t, store.Update(ctx, key, []byte("v2")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("Returned Values Are Isolated", func(t *testing.T) {
		key := prefix + "isolated"
		require.NoError(t, store.Insert(ctx, key, []byte("abc")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		got[0] = 'z'

		again, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "delete"
		require.NoError(t, store.Insert(ctx, key, []byte("v")))

		require.NoError(t, store.Delete(ctx, key, prefix+"never-existed"))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Get after Delete should return ErrRecordNotFound")

		assert.NoError(t, store.Delete(ctx), "deleting nothing is a no-op")
	})

	t.Run("Scan", func(t *testing.T) {
		scanPrefix := prefix + "scan:"
		want := map[string][]byte{}
		for i := 0; i < 3; i++ {
			key := fmt.Sprintf("%s%d", scanPrefix, i)
			want[key] = []byte(fmt.Sprintf("value-%d", i))
			require.NoError(t, store.Insert(ctx, key, want[key]))
		}
		require.NoError(t, store.Insert(ctx, prefix+"scanner", []byte("outside")))

		records, err := store.Scan(ctx, scanPrefix, "", 0)
		require.NoError(t, err)
		got := map[string][]byte{}
		for _, r := range records {
			got[r.Key] = r.Value
		}
		assert.Equal(t, want, got)

		limited, err := store.Scan(ctx, scanPrefix, "", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{scanPrefix + "0", scanPrefix + "1"}, recordKeys(limited))

		rest, err := store.Scan(ctx, scanPrefix, scanPrefix+"1", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{scanPrefix + "2"}, recordKeys(rest))

		none, err := store.Scan(ctx, scanPrefix, scanPrefix+"2", 0)
		require.NoError(t, err)
		assert.Empty(t, none)

		none, err = store.Scan(ctx, prefix+"nothing-here:", "", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func recordKeys(records []Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

// RunHandlerContract runs a suite of tests to verify that a Handler
// implementation adheres to the defined interface contract.
// Attribute values are restricted to the canonical decoded set so that any
// serializing backend round-trips them unchanged.
func RunHandlerContract(t *testing.T, handler Handler) {
	ctx := context.Background()
	id := fmt.Sprintf("%040d", time.Now().UnixNano())
	attrs := map[string]any{
		"name":  "Ann",
		"age":   int64(30),
		"admin": false,
		"tags":  []any{"a", "b"},
		"user":  map[string]any{"city": "Recife"},
	}

	require.NoError(t, handler.Open(ctx, "contract"))

	t.Run("Read Non-Existent", func(t *testing.T) {
		res, err := handler.Read(ctx, "missing-"+id)
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.Nil(t, res.Attributes)
		assert.Equal(t, ExistenceAbsent, res.Existence())
	})

	t.Run("Write and Read", func(t *testing.T) {
		require.NoError(t, handler.Write(ctx, id, attrs, ExistenceUnknown))

		res, err := handler.Read(ctx, id)
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.Equal(t, attrs, res.Attributes)
	})

	t.Run("Write With Stale Hints", func(t *testing.T) {
		updated := map[string]any{"name": "Bob"}
		require.NoError(t, handler.Write(ctx, id, updated, ExistenceAbsent), "insert over an existing record must fall back to update")

		res, err := handler.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, updated, res.Attributes)

		fresh := "fresh-" + id
		require.NoError(t, handler.Write(ctx, fresh, updated, ExistencePresent), "update of a missing record must fall back to insert")
		res, err = handler.Read(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, updated, res.Attributes)
		require.NoError(t, handler.Destroy(ctx, fresh))
	})

	t.Run("GC Keeps Live Records", func(t *testing.T) {
		_, err := handler.GC(ctx, 24*time.Hour)
		require.NoError(t, err)

		res, err := handler.Read(ctx, id)
		require.NoError(t, err)
		assert.True(t, res.Exists)
	})

	t.Run("Destroy", func(t *testing.T) {
		require.NoError(t, handler.Destroy(ctx, id))
		require.NoError(t, handler.Destroy(ctx, id), "destroy is idempotent")

		res, err := handler.Read(ctx, id)
		require.NoError(t, err)
		assert.False(t, res.Exists)
	})

	require.NoError(t, handler.Close())
}
