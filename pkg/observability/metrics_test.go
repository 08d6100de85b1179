package observability_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveOp("read", nil)
		m.ObserveGC(1, 1, time.Second)
		m.ObserveGCSkipped()
	})
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveOp("read", nil)
	m.ObserveOp("write", errors.New("boom"))
	m.ObserveGC(10, 3, 50*time.Millisecond)
	m.ObserveGCSkipped()

	families, err := reg.Gather()
	require.NoError(t, err)

	series := map[string]int{}
	for _, f := range families {
		series[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, map[string]int{
		"stash_handler_operations_total": 2,
		"stash_gc_deleted_total":         1,
		"stash_gc_scanned_total":         1,
		"stash_gc_duration_seconds":      1,
		"stash_gc_skipped_total":         1,
	}, series)
}
