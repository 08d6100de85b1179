package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Update(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockStore) Scan(ctx context.Context, prefix, after string, limit int) ([]ports.Record, error) {
	args := m.Called(ctx, prefix, after, limit)
	records, _ := args.Get(0).([]ports.Record)
	return records, args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

var _ ports.RecordStore = (*mockStore)(nil)

func TestCompressionMiddleware_PassesThrough(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	inner := new(mockStore)
	inner.On("Delete", ctx, []string{"a", "b"}).Return(nil)
	inner.On("Get", ctx, "gone").Return(nil, down)
	inner.On("Scan", ctx, "p:", "p:a", 5).Return(nil, down)
	inner.On("Update", ctx, "small", []byte("{}")).Return(nil)
	inner.On("Close").Return(nil)

	mw, err := middleware.NewCompressionMiddleware(middleware.CompressionConfig{})
	require.NoError(t, err)
	store := mw(inner)

	require.NoError(t, store.Delete(ctx, "a", "b"))
	require.NoError(t, store.Update(ctx, "small", []byte("{}")))

	_, err = store.Get(ctx, "gone")
	assert.ErrorIs(t, err, down)

	_, err = store.Scan(ctx, "p:", "p:a", 5)
	assert.ErrorIs(t, err, down)

	require.NoError(t, store.Close())
	inner.AssertExpectations(t)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.RecordStore) ports.RecordStore {
			calls = append(calls, name)
			return next
		}
	}

	middleware.Chain(new(mockStore), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, calls, "innermost wraps first")
}
