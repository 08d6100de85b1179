package handler

import (
	"log/slog"
	"time"

	"github.com/aretw0/stash/pkg/observability"
)

// DefaultBatchLimit caps the number of records one GC call inspects.
const DefaultBatchLimit = 10000

// DefaultLifetime is the idle window applied on read.
const DefaultLifetime = 120 * time.Minute

// Option configures a Handler.
type Option func(*Handler)

// WithLifetime sets the idle window after which Read treats a record as expired.
// A zero lifetime disables expiry on read.
func WithLifetime(d time.Duration) Option {
	return func(h *Handler) {
		h.lifetime = d
	}
}

// WithBatchLimit sets how many records a single GC call inspects.
func WithBatchLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.batchLimit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}
