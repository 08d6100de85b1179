package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg stash.Config, opts ...stash.Option) (*stash.Manager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	if cfg.Lottery == nil {
		cfg.Lottery = []int{0, 100}
	}
	m, err := stash.New(cfg, append([]stash.Option{stash.WithRecordStore(store)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, store
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

// visits counts requests in the session and echoes the count.
var visits = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	s := FromContext(r.Context())
	n, err := s.Increment("visits", 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = fmt.Fprint(w, n)
})

func TestMiddleware_CookieRoundTrip(t *testing.T) {
	m, store := newManager(t, stash.Config{Name: "shop"})
	h := Middleware(m)(visits)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Body.String())

	cookie := sessionCookie(t, rec, "shop_cookie")
	assert.True(t, session.IsValidID(cookie.Value))
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.Secure)
	assert.False(t, cookie.Expires.IsZero())
	assert.Equal(t, 0, store.Len(), "first request without a cookie is not saved")

	for _, want := range []string{"2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "shop_cookie", Value: cookie.Value})
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Body.String())
		assert.Equal(t, cookie.Value, sessionCookie(t, rec, "shop_cookie").Value)
	}
	assert.Equal(t, 1, store.Len())
}

func TestMiddleware_CommitAlways(t *testing.T) {
	m, store := newManager(t, stash.Config{})
	h := Middleware(m, WithCommitAlways())(visits)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, store.Len())
	id := sessionCookie(t, rec, m.CookieName()).Value
	s, err := m.Begin(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Get("visits", nil))
}

func TestMiddleware_Identity(t *testing.T) {
	m, _ := newManager(t, stash.Config{})
	identity := func(r *http.Request) string { return r.Header.Get("X-User") }
	h := Middleware(m, WithIdentity(identity))(visits)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "user-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, stash.IdentityID("user-7"), sessionCookie(t, rec, m.CookieName()).Value)

	// The cookie wins over the identity.
	other := session.GenerateID()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "user-7")
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: other})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, other, sessionCookie(t, rec, m.CookieName()).Value)
}

func TestMiddleware_InvalidCookieGetsFreshID(t *testing.T) {
	m, _ := newManager(t, stash.Config{})
	h := Middleware(m)(visits)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	id := sessionCookie(t, rec, m.CookieName()).Value
	assert.NotEqual(t, "../../etc/passwd", id)
	assert.True(t, session.IsValidID(id))
}

func TestMiddleware_RegenerateUpdatesCookie(t *testing.T) {
	m, _ := newManager(t, stash.Config{})
	var before string
	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		before = s.ID()
		_, err := s.Regenerate(r.Context(), true)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	got := sessionCookie(t, rec, m.CookieName()).Value
	assert.NotEqual(t, before, got)
	assert.True(t, session.IsValidID(got))
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestMiddleware_CookieAttributes(t *testing.T) {
	m, _ := newManager(t, stash.Config{ExpireOnClose: true})
	h := Middleware(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookie := sessionCookie(t, rec, m.CookieName())
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.Expires.IsZero(), "expire-on-close sets a browser-session cookie")
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

type failingHandler struct {
	ports.Handler
}

func (failingHandler) Open(context.Context, string) error { return nil }
func (failingHandler) Close() error                       { return nil }
func (failingHandler) Read(context.Context, string) (ports.ReadResult, error) {
	return ports.ReadResult{}, errors.New("connection refused")
}

func TestMiddleware_BackendUnavailable(t *testing.T) {
	m, err := stash.New(stash.Config{Lottery: []int{0, 100}}, stash.WithHandler(failingHandler{}))
	require.NoError(t, err)
	defer m.Close()

	called := false
	h := Middleware(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, called)
}

func TestMiddleware_LotteryRunsInBackground(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m, store := newManager(t, stash.Config{Lifetime: time.Minute, Lottery: []int{1, 1}},
		stash.WithClock(func() time.Time { return now }))

	s, err := m.Begin(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, m.Commit(context.Background(), s))
	require.Equal(t, 1, store.Len())
	now = now.Add(time.Hour)

	var wg sync.WaitGroup
	h := Middleware(m, WithWaitGroup(&wg))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}

func TestFromContext_Empty(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
