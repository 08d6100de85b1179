package stash

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/attr"
	"github.com/aretw0/stash/pkg/gc"
	"github.com/aretw0/stash/pkg/handler"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
)

// Manager is the high-level entry point: it owns the persistence handler and
// the garbage collector of one session namespace, and hands out a
// session.Store per request.
type Manager struct {
	cfg       Config
	handler   ports.Handler
	store     ports.RecordStore
	locker    ports.DistributedLocker
	collector *gc.Collector
	masker    *attr.Masker
	logger    *slog.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// Option defines a functional option for configuring the Manager.
type Option func(*Manager)

// WithHandler replaces the default handler built from Config.Backend.
func WithHandler(h ports.Handler) Option {
	return func(m *Manager) {
		m.handler = h
	}
}

// WithRecordStore sets the record store behind the default handler.
func WithRecordStore(s ports.RecordStore) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLocker coordinates garbage collection across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock overrides the time source used for cookie expiry and the default handler.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager. Unless WithHandler or WithRecordStore is given, the
// record store is opened from cfg.Backend.
func New(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:    cfg,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	masker, err := attr.NewMasker(cfg.RedactKeys)
	if err != nil {
		return nil, err
	}
	m.masker = masker

	if m.handler == nil {
		if m.store == nil {
			store, locker, err := OpenRecordStore(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
			}
			m.store = store
			if m.locker == nil {
				m.locker = locker
			}
		}
		if cfg.Compression {
			if err := m.compressStore(); err != nil {
				return nil, err
			}
		}
		m.handler = handler.New(m.store, cfg.Name,
			handler.WithLifetime(cfg.Lifetime),
			handler.WithBatchLimit(cfg.GCBatchLimit),
			handler.WithClock(m.now),
			handler.WithLogger(m.logger),
			handler.WithMetrics(m.metrics),
		)
	}

	if err := m.handler.Open(context.Background(), cfg.Name); err != nil {
		return nil, fmt.Errorf("failed to open session handler: %w", err)
	}

	gcOpts := []gc.Option{
		gc.WithSchedule(cfg.GCSchedule),
		gc.WithLottery(gc.Lottery{Hits: cfg.Lottery[0], Draws: cfg.Lottery[1]}),
		gc.WithLogger(m.logger),
		gc.WithMetrics(m.metrics),
	}
	if m.locker != nil {
		gcOpts = append(gcOpts, gc.WithLocker(m.locker, time.Minute))
	}
	m.collector = gc.New(cfg.Name, m.handler, cfg.Lifetime, gcOpts...)

	m.logger.Debug("session manager ready", "name", cfg.Name, "backend", cfg.Backend)
	return m, nil
}

func (m *Manager) compressStore() error {
	compress, err := middleware.NewCompressionMiddleware(middleware.CompressionConfig{
		MinSize: m.cfg.CompressMinSize,
	})
	if err != nil {
		_ = m.store.Close()
		return err
	}
	m.store = middleware.Chain(m.store, compress)
	return nil
}

// Name returns the sanitized session namespace.
func (m *Manager) Name() string {
	return m.cfg.Name
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// CookieName returns the name of the cookie carrying the session ID.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// CookieExpiry returns the expiry to set on the session cookie. The zero time
// means a browser-session cookie.
func (m *Manager) CookieExpiry() time.Time {
	if m.cfg.ExpireOnClose {
		return time.Time{}
	}
	return m.now().Add(m.cfg.Lifetime)
}

// Handler returns the persistence handler.
func (m *Manager) Handler() ports.Handler {
	return m.handler
}

// Sessions returns the administrative view of the default handler. It
// reports false when a custom handler was supplied with WithHandler.
func (m *Manager) Sessions() (*handler.Handler, bool) {
	h, ok := m.handler.(*handler.Handler)
	return h, ok
}

// Redact masks the attributes whose key matches Config.RedactKeys. It
// returns a copy and is meant for admin views, never for persistence.
func (m *Manager) Redact(attrs map[string]any) map[string]any {
	return m.masker.Mask(attrs)
}

// Collector returns the garbage collector.
func (m *Manager) Collector() *gc.Collector {
	return m.collector
}

// NewStore returns an unstarted store for id. An invalid id gets a fresh one.
func (m *Manager) NewStore(id string) *session.Store {
	return session.New(m.cfg.Name, m.handler, id, session.WithLogger(m.logger))
}

// Begin returns a started store for the candidate ID.
func (m *Manager) Begin(ctx context.Context, candidate string) (*session.Store, error) {
	s := m.NewStore(candidate)
	if err := s.Start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Commit saves s.
func (m *Manager) Commit(ctx context.Context, s *session.Store) error {
	return s.Save(ctx)
}

// CollectGarbage runs one sweep immediately.
func (m *Manager) CollectGarbage(ctx context.Context) (ports.GCReport, error) {
	return m.collector.Collect(ctx)
}

// MaybeCollectGarbage draws the GC lottery and sweeps on a win.
func (m *Manager) MaybeCollectGarbage(ctx context.Context) bool {
	return m.collector.MaybeCollect(ctx)
}

// Close stops the scheduled collection and closes the handler.
func (m *Manager) Close() error {
	m.collector.Stop()
	return m.handler.Close()
}

// IdentityID derives a stable session ID from an authenticated user identity.
// The result is 40 lowercase hex characters, itself a valid session ID.
func IdentityID(identity string) string {
	sum := sha1.Sum([]byte(identity))
	return hex.EncodeToString(sum[:])
}
