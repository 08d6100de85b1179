package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, now *time.Time) (*Server, *stash.Manager) {
	t.Helper()
	m, err := stash.New(stash.Config{Name: "admin", Lifetime: time.Minute},
		stash.WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return NewServer(m), m
}

func seed(t *testing.T, m *stash.Manager, user string) string {
	t.Helper()
	ctx := context.Background()
	s, err := m.Begin(ctx, "")
	require.NoError(t, err)
	s.Put("user", user)
	require.NoError(t, m.Commit(ctx, s))
	return s.ID()
}

func TestServer_ListAndInspect(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	srv, m := newTestServer(t, &now)
	ctx := context.Background()

	first := seed(t, m, "ann")
	seed(t, m, "bob")

	list, err := srv.handleList(ctx, mcp.CallToolRequest{}, listArgs{})
	require.NoError(t, err)
	assert.Equal(t, "admin", list.Namespace)
	assert.Len(t, list.Sessions, 2)

	limited, err := srv.handleList(ctx, mcp.CallToolRequest{}, listArgs{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Sessions, 1)

	sess, err := srv.handleInspect(ctx, mcp.CallToolRequest{}, idArgs{ID: first})
	require.NoError(t, err)
	assert.Equal(t, first, sess.ID)
	assert.Equal(t, "ann", sess.Attributes["user"])
	assert.Equal(t, now.Unix(), sess.LastActivity)
	assert.False(t, sess.Expired)

	_, err = srv.handleInspect(ctx, mcp.CallToolRequest{}, idArgs{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestServer_EmptyListIsNotNil(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	srv, _ := newTestServer(t, &now)

	list, err := srv.handleList(context.Background(), mcp.CallToolRequest{}, listArgs{})
	require.NoError(t, err)
	assert.NotNil(t, list.Sessions)
	assert.Empty(t, list.Sessions)
}

func TestServer_DestroyAndCollect(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	srv, m := newTestServer(t, &now)
	ctx := context.Background()

	doomed := seed(t, m, "ann")
	seed(t, m, "bob")

	res, err := srv.handleDestroy(ctx, mcp.CallToolRequest{}, idArgs{ID: doomed})
	require.NoError(t, err)
	assert.Equal(t, DestroyResult{ID: doomed, Destroyed: true}, res)

	_, err = srv.handleDestroy(ctx, mcp.CallToolRequest{}, idArgs{})
	assert.Error(t, err)

	now = now.Add(time.Hour)
	report, err := srv.handleCollect(ctx, mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, ports.GCReport{Scanned: 1, Deleted: 1}, report)
}

type customHandler struct {
	ports.Handler
}

func (customHandler) Open(context.Context, string) error { return nil }
func (customHandler) Close() error                       { return nil }

func TestServer_CustomHandlerHasNoAdmin(t *testing.T) {
	m, err := stash.New(stash.Config{}, stash.WithHandler(customHandler{}))
	require.NoError(t, err)
	srv := NewServer(m)

	_, err = srv.handleList(context.Background(), mcp.CallToolRequest{}, listArgs{})
	assert.ErrorIs(t, err, ErrNoAdmin)
}

func TestServer_RedactsAttributes(t *testing.T) {
	m, err := stash.New(stash.Config{RedactKeys: []string{"^password$"}})
	require.NoError(t, err)
	defer m.Close()
	srv := NewServer(m)
	ctx := context.Background()

	s, err := m.Begin(ctx, "")
	require.NoError(t, err)
	s.Put("password", "hunter2")
	s.Put("user", "ann")
	require.NoError(t, m.Commit(ctx, s))

	sess, err := srv.handleInspect(ctx, mcp.CallToolRequest{}, idArgs{ID: s.ID()})
	require.NoError(t, err)
	assert.Equal(t, "***", sess.Attributes["password"])
	assert.Equal(t, "ann", sess.Attributes["user"])

	list, err := srv.handleList(ctx, mcp.CallToolRequest{}, listArgs{})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "***", list.Sessions[0].Attributes["password"])
}
