package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snow-ghost/fuzzyctl/engine"
	"github.com/snow-ghost/fuzzyctl/pkg/logging"
	"github.com/snow-ghost/fuzzyctl/pkg/loop"
	"github.com/snow-ghost/fuzzyctl/pkg/metrics"
	"github.com/snow-ghost/fuzzyctl/pkg/tracing"
)

// Manager manages all observability components. It implements
// engine.Observer so an engine's fallbacks end up in logs and metrics.
type Manager struct {
	metrics *metrics.PrometheusMetrics
	tracer  *tracing.Tracer
	logger  *logging.Logger
	system  string
}

var (
	_ engine.Observer = (*Manager)(nil)
	_ loop.Recorder   = (*Manager)(nil)
)

// Config holds observability configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	JaegerEndpoint string
	LogLevel       string
	LogFormat      string
	// Registerer receives the metrics; nil uses the default registerer.
	Registerer prometheus.Registerer
}

// NewManager creates a new observability manager
func NewManager(config Config) (*Manager, error) {
	prometheusMetrics := metrics.NewPrometheusMetrics(config.Registerer)

	tracer, err := tracing.NewTracer(tracing.Config{
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		JaegerEndpoint: config.JaegerEndpoint,
		Environment:    config.Environment,
	})
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		return nil, err
	}

	return New(logger, prometheusMetrics, tracer), nil
}

// New assembles a manager from existing components.
func New(logger *logging.Logger, m *metrics.PrometheusMetrics, tracer *tracing.Tracer) *Manager {
	return &Manager{
		metrics: m,
		tracer:  tracer,
		logger:  logger,
	}
}

// ForSystem returns a manager whose loop metrics and logs carry the system
// name.
func (m *Manager) ForSystem(system string) *Manager {
	return &Manager{
		metrics: m.metrics,
		tracer:  m.tracer,
		logger:  m.logger,
		system:  system,
	}
}

// GetMetrics returns the metrics instance
func (m *Manager) GetMetrics() *metrics.PrometheusMetrics {
	return m.metrics
}

// GetTracer returns the tracer instance
func (m *Manager) GetTracer() *tracing.Tracer {
	return m.tracer
}

// GetLogger returns the logger instance
func (m *Manager) GetLogger() *logging.Logger {
	return m.logger
}

// OnClamp records an input pulled back into its universe
func (m *Manager) OnClamp(system string, c engine.Clamp) {
	m.metrics.RecordClamp(system, c.Variable)
	m.logger.LogClamp(system, c.Variable, c.Requested, c.Applied)
}

// OnNoRuleFired records an output that no rule produced
func (m *Manager) OnNoRuleFired(system, variable string) {
	m.metrics.RecordNoRuleFired(system, variable)
	m.logger.LogNoRuleFired(system, variable)
}

// OnCompute records one inference pass
func (m *Manager) OnCompute(system string, d time.Duration, err error) {
	m.metrics.RecordCompute(system, d, err)
	m.logger.LogCompute(system, d, err)
}

// OnCycle records a control-loop cycle and the values it applied
func (m *Manager) OnCycle(r loop.CycleReport, err error) {
	logger := m.logger
	if m.system != "" {
		logger = logger.WithSystem(m.system)
	}
	logger = logger.WithTraceID(r.TraceID)
	m.metrics.RecordCycle(r.Duration, err)
	if err != nil {
		logger.Warn("Control cycle failed", "cycle", r.Cycle, "error", err)
		return
	}
	for name, v := range r.Outputs {
		m.metrics.RecordOutput(m.system, name, v)
	}
	logger.LogCycle(r.Cycle, r.Outputs, r.Fallbacks, r.Duration)
}

// OnFallback records an output replaced by the loop's fallback policy
func (m *Manager) OnFallback(variable string, policy loop.Policy) {
	m.metrics.RecordFallback(variable, string(policy))
}

// OnBreakerState records a sensor circuit breaker transition
func (m *Manager) OnBreakerState(name, from, to string) {
	m.metrics.RecordCircuitState(name, to)
	m.logger.LogBreakerState(name, from, to)
}

// RecordCacheMetrics records cache metrics
func (m *Manager) RecordCacheMetrics(hit bool) {
	if hit {
		m.metrics.RecordCacheHit()
	} else {
		m.metrics.RecordCacheMiss()
	}
}

// Shutdown shuts down all observability components
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if m.tracer != nil {
		if err := m.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	// Sync on a terminal stderr returns EINVAL; there is nothing to flush.
	_ = m.logger.Sync()
	return errors.Join(errs...)
}
