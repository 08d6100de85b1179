package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the collectors updated by handlers and the garbage collector.
type Metrics struct {
	ops        *prometheus.CounterVec
	gcDeleted  prometheus.Counter
	gcScanned  prometheus.Counter
	gcDuration prometheus.Histogram
	gcSkipped  prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stash_handler_operations_total",
				Help: "Handler operations by kind and result",
			},
			[]string{"op", "result"},
		),
		gcDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_gc_deleted_total",
			Help: "Session records deleted by garbage collection",
		}),
		gcScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_gc_scanned_total",
			Help: "Session records inspected by garbage collection",
		}),
		gcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stash_gc_duration_seconds",
			Help:    "Duration of garbage collection runs",
			Buckets: prometheus.DefBuckets,
		}),
		gcSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stash_gc_skipped_total",
			Help: "Garbage collection runs skipped because another replica held the lock",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.ops, m.gcDeleted, m.gcScanned, m.gcDuration, m.gcSkipped)
	}
	return m
}

// ObserveOp counts one handler operation.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.ops.WithLabelValues(op, result).Inc()
}

// ObserveGC records the outcome of one sweep.
func (m *Metrics) ObserveGC(scanned, deleted int, took time.Duration) {
	if m == nil {
		return
	}
	m.gcScanned.Add(float64(scanned))
	m.gcDeleted.Add(float64(deleted))
	m.gcDuration.Observe(took.Seconds())
}

// ObserveGCSkipped counts a run that did not get the lock.
func (m *Metrics) ObserveGCSkipped() {
	if m == nil {
		return
	}
	m.gcSkipped.Inc()
}
