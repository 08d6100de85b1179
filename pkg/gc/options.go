package gc

import (
	"log/slog"
	"time"

	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/ports"
)

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "@hourly"

// Lottery is the per-request chance (Hits out of Draws) of triggering a sweep.
// A zero Lottery never triggers.
type Lottery struct {
	Hits  int
	Draws int
}

// DefaultLottery triggers on 2% of requests.
var DefaultLottery = Lottery{Hits: 2, Draws: 100}

// Enabled reports whether the lottery can ever win.
func (l Lottery) Enabled() bool {
	return l.Hits > 0 && l.Draws > 0
}

// Option configures a Collector.
type Option func(*Collector)

// WithSchedule sets the cron expression, e.g. "@hourly" or "*/15 * * * *".
func WithSchedule(schedule string) Option {
	return func(c *Collector) {
		c.schedule = schedule
	}
}

// WithLottery sets the per-request trigger odds.
func WithLottery(l Lottery) Option {
	return func(c *Collector) {
		c.lottery = l
	}
}

// WithLocker coordinates sweeps across replicas. The lock expires after ttl.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(c *Collector) {
		c.locker = locker
		c.lockTTL = ttl
	}
}

// WithLockWait bounds how long a run waits for the lock before skipping.
func WithLockWait(d time.Duration) Option {
	return func(c *Collector) {
		c.lockWait = d
	}
}

// WithRand overrides the lottery draw. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(c *Collector) {
		c.intn = intn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}
