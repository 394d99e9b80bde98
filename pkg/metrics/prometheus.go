package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// Inference metrics
	ComputesTotal    *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec
	ClampsTotal      *prometheus.CounterVec
	NoRuleFiredTotal *prometheus.CounterVec
	OutputValue      *prometheus.GaugeVec

	// Control loop metrics
	CyclesTotal    *prometheus.CounterVec
	CycleLatency   prometheus.Histogram
	FallbacksTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Circuit breaker metrics
	CircuitTransitionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the metrics with reg. A nil reg uses the
// default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Inference metrics
		ComputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_computes_total",
				Help: "Total number of inference passes",
			},
			[]string{"system", "status"},
		),

		LatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuzzy_compute_duration_seconds",
				Help:    "Inference latency in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"system"},
		),

		ClampsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_input_clamps_total",
				Help: "Total number of inputs clamped into their universe",
			},
			[]string{"system", "variable"},
		),

		NoRuleFiredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_no_rule_fired_total",
				Help: "Total number of outputs computed with no fired rule",
			},
			[]string{"system", "variable"},
		),

		OutputValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuzzy_output_value",
				Help: "Last value applied to each output",
			},
			[]string{"system", "variable"},
		),

		// Control loop metrics
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_loop_cycles_total",
				Help: "Total number of control-loop cycles",
			},
			[]string{"status"},
		),

		CycleLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuzzy_loop_cycle_duration_seconds",
				Help:    "Control-loop cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_loop_fallbacks_total",
				Help: "Total number of outputs replaced by a fallback value",
			},
			[]string{"variable", "policy"},
		),

		// Cache metrics
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fuzzy_cache_hits_total",
				Help: "Total number of result cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fuzzy_cache_misses_total",
				Help: "Total number of result cache misses",
			},
		),

		// Circuit breaker metrics
		CircuitTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuzzy_circuit_transitions_total",
				Help: "Total number of circuit breaker state changes by target state",
			},
			[]string{"breaker", "state"},
		),
	}
}

// RecordCompute records one inference pass
func (m *PrometheusMetrics) RecordCompute(system string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ComputesTotal.WithLabelValues(system, status).Inc()
	m.LatencyHistogram.WithLabelValues(system).Observe(duration.Seconds())
}

// RecordClamp records a clamped input
func (m *PrometheusMetrics) RecordClamp(system, variable string) {
	m.ClampsTotal.WithLabelValues(system, variable).Inc()
}

// RecordNoRuleFired records an output without any fired rule
func (m *PrometheusMetrics) RecordNoRuleFired(system, variable string) {
	m.NoRuleFiredTotal.WithLabelValues(system, variable).Inc()
}

// RecordOutput records the value applied to an output
func (m *PrometheusMetrics) RecordOutput(system, variable string, value float64) {
	m.OutputValue.WithLabelValues(system, variable).Set(value)
}

// RecordCycle records one control-loop cycle
func (m *PrometheusMetrics) RecordCycle(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleLatency.Observe(duration.Seconds())
}

// RecordFallback records an output replaced by a fallback policy
func (m *PrometheusMetrics) RecordFallback(variable, policy string) {
	m.FallbacksTotal.WithLabelValues(variable, policy).Inc()
}

// RecordCacheHit records a cache hit
func (m *PrometheusMetrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func (m *PrometheusMetrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// RecordCircuitState records a circuit breaker transition
func (m *PrometheusMetrics) RecordCircuitState(breaker, state string) {
	m.CircuitTransitionsTotal.WithLabelValues(breaker, state).Inc()
}
