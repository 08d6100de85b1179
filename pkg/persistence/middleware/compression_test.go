package middleware_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressed(t *testing.T, next ports.RecordStore, cfg middleware.CompressionConfig) ports.RecordStore {
	t.Helper()
	mw, err := middleware.NewCompressionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestCompressionMiddleware_Contract(t *testing.T) {
	ports.RunRecordStoreContract(t, compressed(t, memory.NewStore(), middleware.CompressionConfig{MinSize: 1}))
}

func TestCompressionMiddleware_ShrinksLargeValues(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := compressed(t, inner, middleware.CompressionConfig{})

	large := []byte(`{"payload":{"cart":"` + strings.Repeat("apple,", 500) + `"},"last_activity":1}`)
	small := []byte(`{"payload":{},"last_activity":1}`)
	require.NoError(t, store.Insert(ctx, "large", large))
	require.NoError(t, store.Insert(ctx, "small", small))

	raw, err := inner.Get(ctx, "large")
	require.NoError(t, err)
	assert.Less(t, len(raw), len(large)/4)
	assert.False(t, bytes.HasPrefix(raw, []byte("{")))

	raw, err = inner.Get(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, small, raw, "values under MinSize are stored as-is")

	got, err := store.Get(ctx, "large")
	require.NoError(t, err)
	assert.Equal(t, large, got)
}

func TestCompressionMiddleware_ReadsPlainValues(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	require.NoError(t, inner.Insert(ctx, "p:old", []byte(`{"payload":{}}`)))

	store := compressed(t, inner, middleware.CompressionConfig{MinSize: 1})
	got, err := store.Get(ctx, "p:old")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"payload":{}}`), got)

	records, err := store.Scan(ctx, "p:", "", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte(`{"payload":{}}`), records[0].Value)
}

func TestCompressionMiddleware_CorruptFrame(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	require.NoError(t, inner.Insert(ctx, "p:bad", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00, 0x01}))

	store := compressed(t, inner, middleware.CompressionConfig{})
	_, err := store.Get(ctx, "p:bad")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	records, err := store.Scan(ctx, "p:", "", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Value)

	_, err = store.Get(ctx, "p:missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
