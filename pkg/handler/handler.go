package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/attr"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/ports"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Handler implements ports.Handler over a ports.RecordStore.
type Handler struct {
	store      ports.RecordStore
	namespace  string
	lifetime   time.Duration
	batchLimit int
	now        func() time.Time
	logger     *slog.Logger
	metrics    *observability.Metrics

	// cursor is the last key inspected by a full GC batch.
	mu     sync.Mutex
	cursor string
}

var _ ports.Handler = (*Handler)(nil)

// New creates a handler storing records for namespace in store.
func New(store ports.RecordStore, namespace string, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		namespace:  namespace,
		lifetime:   DefaultLifetime,
		batchLimit: DefaultBatchLimit,
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Namespace returns the namespace the handler serves.
func (h *Handler) Namespace() string {
	return h.namespace
}

// Prefix is the key prefix shared by every record of the namespace.
func (h *Handler) Prefix() string {
	return "session:" + h.namespace + ":"
}

// Key returns the record key for id.
func (h *Handler) Key(id string) string {
	return h.Prefix() + id
}

// Open binds the handler to namespace.
func (h *Handler) Open(ctx context.Context, namespace string) error {
	if namespace != "" {
		h.namespace = namespace
	}
	return nil
}

// Close closes the underlying record store.
func (h *Handler) Close() error {
	return h.store.Close()
}

// Read loads the attributes stored for id.
func (h *Handler) Read(ctx context.Context, id string) (res ports.ReadResult, err error) {
	defer func() { h.metrics.ObserveOp("read", err) }()

	raw, err := h.store.Get(ctx, h.Key(id))
	if errors.Is(err, domain.ErrRecordNotFound) {
		return ports.ReadResult{}, nil
	}
	if errors.Is(err, domain.ErrMalformedPayload) {
		h.logger.Warn("discarding unreadable session record", "id", id, "error", err)
		return ports.ReadResult{Exists: true}, nil
	}
	if err != nil {
		return ports.ReadResult{}, fmt.Errorf("%w: read %s: %w", domain.ErrBackendUnavailable, id, err)
	}

	rec, err := decode(raw)
	if err != nil {
		h.logger.Warn("discarding malformed session record", "id", id, "error", err)
		return ports.ReadResult{Exists: true}, nil
	}
	if rec.Stale(h.now().Unix(), int64(h.lifetime/time.Second)) {
		return ports.ReadResult{Exists: true}, nil
	}
	return ports.ReadResult{Attributes: rec.Payload, Exists: true}, nil
}

// Write stores attrs for id stamped with the current time.
func (h *Handler) Write(ctx context.Context, id string, attrs map[string]any, hint ports.Existence) (err error) {
	defer func() { h.metrics.ObserveOp("write", err) }()

	raw, err := json.Marshal(domain.NewRecord(attrs, h.now().Unix()))
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}

	key := h.Key(id)
	if hint == ports.ExistenceUnknown {
		hint = ports.ExistenceAbsent
		_, err := h.store.Get(ctx, key)
		switch {
		case err == nil || errors.Is(err, domain.ErrMalformedPayload):
			hint = ports.ExistencePresent
		case !errors.Is(err, domain.ErrRecordNotFound):
			return fmt.Errorf("%w: write %s: %w", domain.ErrBackendUnavailable, id, err)
		}
	}

	if hint == ports.ExistencePresent {
		err = h.store.Update(ctx, key, raw)
		if errors.Is(err, domain.ErrRecordNotFound) {
			err = h.store.Insert(ctx, key, raw)
		}
	} else {
		err = h.store.Insert(ctx, key, raw)
		if errors.Is(err, domain.ErrRecordExists) {
			err = h.store.Update(ctx, key, raw)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrBackendUnavailable, id, err)
	}
	return nil
}

// Destroy deletes the record for id.
func (h *Handler) Destroy(ctx context.Context, id string) (err error) {
	defer func() { h.metrics.ObserveOp("destroy", err) }()

	if err := h.store.Delete(ctx, h.Key(id)); err != nil {
		return fmt.Errorf("%w: destroy %s: %w", domain.ErrBackendUnavailable, id, err)
	}
	return nil
}

// GC deletes records idle for at least lifetime, inspecting at most the
// configured batch limit. A full batch leaves a cursor so the next call
// resumes after it; a short batch wraps back to the first record.
func (h *Handler) GC(ctx context.Context, lifetime time.Duration) (report ports.GCReport, err error) {
	begin := time.Now()
	defer func() {
		h.metrics.ObserveOp("gc", err)
		h.metrics.ObserveGC(report.Scanned, report.Deleted, time.Since(begin))
	}()

	cutoff := h.now().Unix() - int64(lifetime/time.Second)

	prefix := h.Prefix()
	h.mu.Lock()
	after := h.cursor
	h.mu.Unlock()
	if !strings.HasPrefix(after, prefix) {
		after = ""
	}

	records, err := h.store.Scan(ctx, prefix, after, h.batchLimit)
	if err != nil {
		return report, fmt.Errorf("%w: %w", domain.ErrGCBatch, err)
	}
	report.Scanned = len(records)

	next := ""
	if len(records) >= h.batchLimit {
		next = records[len(records)-1].Key
	}
	h.mu.Lock()
	h.cursor = next
	h.mu.Unlock()

	var doomed []string
	for _, r := range records {
		rec, err := decode(r.Value)
		if err != nil {
			report.Malformed++
			doomed = append(doomed, r.Key)
			continue
		}
		if rec.Collectable(cutoff) {
			doomed = append(doomed, r.Key)
		}
	}

	if len(doomed) > 0 {
		if err := h.store.Delete(ctx, doomed...); err != nil {
			return report, fmt.Errorf("%w: %w", domain.ErrGCBatch, err)
		}
	}
	report.Deleted = len(doomed)

	h.logger.Debug("session gc sweep",
		"namespace", h.namespace,
		"scanned", report.Scanned,
		"deleted", report.Deleted,
		"malformed", report.Malformed,
	)
	return report, nil
}

// Session is one stored record as seen by admin tooling.
type Session struct {
	ID           string         `json:"id"`
	LastActivity int64          `json:"last_activity"`
	Expired      bool           `json:"expired"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// List returns up to limit stored sessions of the namespace, expired ones included.
// Malformed records are skipped.
func (h *Handler) List(ctx context.Context, limit int) ([]Session, error) {
	records, err := h.store.Scan(ctx, h.Prefix(), "", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrBackendUnavailable, err)
	}

	sessions := make([]Session, 0, len(records))
	for _, r := range records {
		rec, err := decode(r.Value)
		if err != nil {
			continue
		}
		sessions = append(sessions, h.describe(strings.TrimPrefix(r.Key, h.Prefix()), rec))
	}
	return sessions, nil
}

// Inspect returns the stored session for id, expired or not.
// Returns domain.ErrRecordNotFound when nothing is stored.
func (h *Handler) Inspect(ctx context.Context, id string) (Session, error) {
	raw, err := h.store.Get(ctx, h.Key(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, domain.ErrMalformedPayload) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: inspect %s: %w", domain.ErrBackendUnavailable, id, err)
	}
	rec, err := decode(raw)
	if err != nil {
		return Session{}, err
	}
	return h.describe(id, rec), nil
}

func (h *Handler) describe(id string, rec domain.Record) Session {
	s := Session{
		ID:         id,
		Expired:    rec.Stale(h.now().Unix(), int64(h.lifetime/time.Second)),
		Attributes: rec.Payload,
	}
	if rec.LastActivity != nil {
		s.LastActivity = *rec.LastActivity
	}
	return s
}

func decode(raw []byte) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if rec.Payload == nil {
		return rec, fmt.Errorf("%w: missing payload", domain.ErrMalformedPayload)
	}
	rec.Payload = attr.NormalizeMap(rec.Payload)
	return rec, nil
}
