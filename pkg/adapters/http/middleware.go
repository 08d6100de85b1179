package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/session"
)

// Manager is the part of *stash.Manager the middleware drives.
type Manager interface {
	Begin(ctx context.Context, candidate string) (*session.Store, error)
	Commit(ctx context.Context, s *session.Store) error
	CookieName() string
	CookieExpiry() time.Time
	MaybeCollectGarbage(ctx context.Context) bool
}

var _ Manager = (*stash.Manager)(nil)

// IdentityFunc returns the authenticated user of r, or "" for anonymous requests.
type IdentityFunc func(r *http.Request) string

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *session.Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by the middleware, or nil.
func FromContext(ctx context.Context) *session.Store {
	s, _ := ctx.Value(ctxKey{}).(*session.Store)
	return s
}

type middleware struct {
	manager      Manager
	identity     IdentityFunc
	commitAlways bool
	logger       *slog.Logger
	wg           *sync.WaitGroup
}

// Option configures the middleware.
type Option func(*middleware)

// WithIdentity derives the session ID of authenticated users who carry no
// session cookie yet.
func WithIdentity(fn IdentityFunc) Option {
	return func(m *middleware) {
		m.identity = fn
	}
}

// WithCommitAlways saves the session on every request, including the first
// one that had no session cookie.
func WithCommitAlways() Option {
	return func(m *middleware) {
		m.commitAlways = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *middleware) {
		m.logger = logger
	}
}

// WithWaitGroup tracks background garbage collection runs in wg.
func WithWaitGroup(wg *sync.WaitGroup) Option {
	return func(m *middleware) {
		m.wg = wg
	}
}

// Middleware starts a session per request, sets the session cookie and saves
// the session after the wrapped handler returns. Handlers reach the session
// through FromContext.
func Middleware(manager Manager, opts ...Option) func(http.Handler) http.Handler {
	mw := &middleware{
		manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(mw)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mw.serve(next, w, r)
		})
	}
}

func (mw *middleware) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var candidate string
	if mw.identity != nil {
		if user := mw.identity(r); user != "" {
			candidate = stash.IdentityID(user)
		}
	}
	hadCookie := false
	if c, err := r.Cookie(mw.manager.CookieName()); err == nil && c.Value != "" {
		candidate = c.Value
		hadCookie = true
	}

	s, err := mw.manager.Begin(ctx, candidate)
	if err != nil {
		mw.logger.Error("failed to start session", "err", err)
		http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
		return
	}

	mw.collect(ctx)

	cw := &cookieWriter{ResponseWriter: w, set: func() {
		http.SetCookie(w, mw.cookie(r, s))
	}}
	next.ServeHTTP(cw, r.WithContext(NewContext(ctx, s)))
	cw.ensureCookie()

	if !hadCookie && !mw.commitAlways {
		return
	}
	if err := mw.manager.Commit(context.WithoutCancel(ctx), s); err != nil {
		mw.logger.Error("failed to save session", "err", err)
	}
}

func (mw *middleware) cookie(r *http.Request, s *session.Store) *http.Cookie {
	c := &http.Cookie{
		Name:     mw.manager.CookieName(),
		Value:    s.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if exp := mw.manager.CookieExpiry(); !exp.IsZero() {
		c.Expires = exp
	}
	return c
}

// collect draws the GC lottery off the request path.
func (mw *middleware) collect(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if mw.wg != nil {
		mw.wg.Add(1)
	}
	go func() {
		if mw.wg != nil {
			defer mw.wg.Done()
		}
		mw.manager.MaybeCollectGarbage(ctx)
	}()
}

// cookieWriter sets the session cookie right before the response header is
// sent, so that an ID regenerated by the handler is the one the client gets.
type cookieWriter struct {
	http.ResponseWriter
	set  func()
	done bool
}

func (w *cookieWriter) ensureCookie() {
	if !w.done {
		w.done = true
		w.set()
	}
}

func (w *cookieWriter) WriteHeader(code int) {
	w.ensureCookie()
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	w.ensureCookie()
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
