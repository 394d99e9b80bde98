package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCompute(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.RecordCompute("lettuce", time.Millisecond, nil)
	m.RecordCompute("lettuce", time.Millisecond, nil)
	m.RecordCompute("lettuce", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ComputesTotal.WithLabelValues("lettuce", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComputesTotal.WithLabelValues("lettuce", "error")))
}

func TestRecordEngineEvents(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.RecordClamp("lettuce", "temperature")
	m.RecordNoRuleFired("lettuce", "irrigation")
	m.RecordNoRuleFired("lettuce", "irrigation")
	m.RecordOutput("lettuce", "heating", 42.5)
	m.RecordFallback("irrigation", "hold-last")
	m.RecordCircuitState("sensors", "open")
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClampsTotal.WithLabelValues("lettuce", "temperature")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NoRuleFiredTotal.WithLabelValues("lettuce", "irrigation")))
	assert.Equal(t, 42.5, testutil.ToFloat64(m.OutputValue.WithLabelValues("lettuce", "heating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("irrigation", "hold-last")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitTransitionsTotal.WithLabelValues("sensors", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestRecordCycleExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)
	m.RecordCycle(10*time.Millisecond, nil)

	expected := `
# HELP fuzzy_loop_cycles_total Total number of control-loop cycles
# TYPE fuzzy_loop_cycles_total counter
fuzzy_loop_cycles_total{status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fuzzy_loop_cycles_total"))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusMetrics(reg)
	assert.Panics(t, func() { NewPrometheusMetrics(reg) })
}
