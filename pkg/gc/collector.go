package gc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/robfig/cron/v3"
)

// ErrSkipped is returned when another run holds the lock.
var ErrSkipped = errors.New("session gc skipped: lock held elsewhere")

// Collector triggers Handler.GC for one session namespace.
type Collector struct {
	name     string
	handler  ports.Handler
	lifetime time.Duration

	schedule string
	lottery  Lottery
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	lockWait time.Duration
	intn     func(n int) int
	logger   *slog.Logger
	metrics  *observability.Metrics

	// running guards against overlapping sweeps in this process.
	running sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a collector sweeping records idle for at least lifetime.
func New(name string, handler ports.Handler, lifetime time.Duration, opts ...Option) *Collector {
	c := &Collector{
		name:     name,
		handler:  handler,
		lifetime: lifetime,
		schedule: DefaultSchedule,
		lottery:  DefaultLottery,
		lockTTL:  time.Minute,
		lockWait: 500 * time.Millisecond,
		intn:     rand.IntN,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LockKey names the scheduled task; it doubles as the distributed lock key.
func (c *Collector) LockKey() string {
	return c.name + "_session_garbage_collection"
}

// Schedule returns the cron expression.
func (c *Collector) Schedule() string {
	return c.schedule
}

// Collect runs one sweep. It returns ErrSkipped when a sweep is already
// running here or on another replica.
func (c *Collector) Collect(ctx context.Context) (ports.GCReport, error) {
	if !c.running.TryLock() {
		c.metrics.ObserveGCSkipped()
		return ports.GCReport{}, ErrSkipped
	}
	defer c.running.Unlock()

	if c.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, c.lockWait)
		unlock, err := c.locker.Lock(lockCtx, c.LockKey(), c.lockTTL)
		cancel()
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				c.logger.Debug("session gc lock held elsewhere", "key", c.LockKey())
				c.metrics.ObserveGCSkipped()
				return ports.GCReport{}, ErrSkipped
			}
			return ports.GCReport{}, fmt.Errorf("failed to acquire gc lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				c.logger.Warn("Failed to release gc lock (will expire via TTL)",
					"key", c.LockKey(),
					"err", err,
				)
			}
		}()
	}

	report, err := c.handler.GC(ctx, c.lifetime)
	if err != nil {
		c.logger.Error("session gc failed", "name", c.name, "err", err)
		return report, err
	}
	c.logger.Info("session gc finished",
		"name", c.name,
		"scanned", report.Scanned,
		"deleted", report.Deleted,
		"malformed", report.Malformed,
	)
	return report, nil
}

// MaybeCollect draws the lottery and runs a sweep on a win.
// It reports whether a sweep was attempted.
func (c *Collector) MaybeCollect(ctx context.Context) bool {
	if !c.lottery.Enabled() || c.intn(c.lottery.Draws) >= c.lottery.Hits {
		return false
	}
	_, _ = c.Collect(ctx)
	return true
}

// Start registers the sweep on the cron schedule and starts the scheduler.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return nil
	}

	logger := cronLogger{c.logger}
	sched := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := sched.AddFunc(c.schedule, func() {
		_, _ = c.Collect(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid gc schedule %q: %w", c.schedule, err)
	}

	sched.Start()
	c.cron = sched
	c.logger.Debug("session gc scheduled", "task", c.LockKey(), "schedule", c.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (c *Collector) Stop() {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	c.mu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
