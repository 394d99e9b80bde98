// Package loop drives an inference engine from sensor readings to actuator
// commands, one cycle at a time.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/engine"
	"github.com/snow-ghost/fuzzyctl/pkg/tracing"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Sensors supplies the current crisp readings, keyed by antecedent name.
// Readings for names the engine does not declare are ignored.
type Sensors interface {
	Read(ctx context.Context) (map[string]float64, error)
}

// Actuators receives the crisp values computed for each output.
type Actuators interface {
	Apply(ctx context.Context, outputs map[string]float64) error
}

// Policy selects the value applied to an output no rule fired for.
type Policy string

const (
	// HoldLast re-applies the previous value, or the configured default
	// before the output has ever been applied.
	HoldLast Policy = "hold-last"
	// Default applies the configured default value.
	Default Policy = "default"
)

// Config holds control loop settings
type Config struct {
	RateHz    float64 // cycles per second; <= 0 runs unpaced
	MaxCycles int     // 0 runs until the context is cancelled
	Policy    Policy

	// Defaults are the fallback values by output name. Outputs with no
	// fallback value are left out of the actuator command.
	Defaults map[string]float64
	Breaker  BreakerConfig
}

// CycleReport describes one completed cycle.
type CycleReport struct {
	Cycle     int
	Inputs    map[string]float64 // after clamping
	Clamps    []engine.Clamp
	Outputs   map[string]float64 // as applied
	Fallbacks []string
	Duration  time.Duration
	TraceID   string // empty without a tracer
}

// Recorder observes loop activity.
type Recorder interface {
	OnCycle(r CycleReport, err error)
	OnFallback(variable string, policy Policy)
	OnBreakerState(name, from, to string)
}

type nopRecorder struct{}

func (nopRecorder) OnCycle(CycleReport, error)    {}
func (nopRecorder) OnFallback(string, Policy)     {}
func (nopRecorder) OnBreakerState(_, _, _ string) {}

// Option configures a Loop.
type Option func(*Loop)

// WithRecorder routes cycle, fallback and breaker events to r.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithTracer wraps each cycle in a span.
func WithTracer(t *tracing.Tracer) Option {
	return func(l *Loop) { l.tracer = t }
}

// WithSessionOptions configures the session the loop computes with.
func WithSessionOptions(opts ...engine.SessionOption) Option {
	return func(l *Loop) { l.sessionOpts = append(l.sessionOpts, opts...) }
}

// Loop runs sense, infer and actuate cycles. Step and Run must not be
// called concurrently; Cycles and BreakerState may be read from any
// goroutine.
type Loop struct {
	engine      *engine.Engine
	session     *engine.Session
	sessionOpts []engine.SessionOption
	sensors     Sensors
	actuators   Actuators
	cfg         Config
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	recorder    Recorder
	tracer      *tracing.Tracer
	inputs      map[string]bool
	last        map[string]float64
	cycles      atomic.Int64
}

// New creates a loop over eng.
func New(eng *engine.Engine, sensors Sensors, actuators Actuators, cfg Config, opts ...Option) (*Loop, error) {
	if eng == nil || sensors == nil || actuators == nil {
		return nil, fmt.Errorf("%w: engine, sensors and actuators are required", core.ErrInvalidParameter)
	}
	if cfg.Policy == "" {
		cfg.Policy = HoldLast
	}
	if cfg.Policy != HoldLast && cfg.Policy != Default {
		return nil, fmt.Errorf("%w: unknown fallback policy %q", core.ErrInvalidParameter, cfg.Policy)
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig()
	}
	for name := range cfg.Defaults {
		if v, ok := eng.Variable(name); !ok || v.Role() != core.Consequent {
			return nil, fmt.Errorf("%w: fallback for %q, which is not an output", core.ErrUnknownVariable, name)
		}
	}

	l := &Loop{
		engine:    eng,
		sensors:   sensors,
		actuators: actuators,
		cfg:       cfg,
		limiter:   newLimiter(cfg.RateHz),
		recorder:  nopRecorder{},
		inputs:    make(map[string]bool),
		last:      make(map[string]float64),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, name := range eng.Antecedents() {
		l.inputs[name] = true
	}
	l.session = eng.NewSession(l.sessionOpts...)
	l.breaker = newBreaker(cfg.Breaker, func(name string, from, to gobreaker.State) {
		l.recorder.OnBreakerState(name, from.String(), to.String())
	})
	return l, nil
}

// Cycles returns the number of cycles run so far.
func (l *Loop) Cycles() int { return int(l.cycles.Load()) }

// BreakerState reports the sensor circuit breaker state.
func (l *Loop) BreakerState() string { return l.breaker.State().String() }

// Run executes cycles until ctx is cancelled or MaxCycles is reached.
// Sensor and actuator failures are reported and the loop carries on; a
// rule base that cannot be evaluated from the sensors stops it.
func (l *Loop) Run(ctx context.Context) error {
	for n := 0; l.cfg.MaxCycles <= 0 || n < l.cfg.MaxCycles; n++ {
		if err := l.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, err := l.Step(ctx); err != nil && fatal(err) {
			return err
		}
	}
	return nil
}

func fatal(err error) bool {
	return errors.Is(err, core.ErrMissingInput) || errors.Is(err, core.ErrUnknownVariable)
}

// Step runs exactly one cycle without pacing.
func (l *Loop) Step(ctx context.Context) (report CycleReport, err error) {
	start := time.Now()
	report.Cycle = int(l.cycles.Add(1))

	if l.tracer != nil {
		var span trace.Span
		ctx, span = l.tracer.StartCycleSpan(ctx, l.engine.Name(), report.Cycle)
		defer func() {
			if err != nil {
				tracing.RecordSpanError(span, err)
			} else {
				tracing.RecordSpanOutputs(span, report.Outputs)
				tracing.RecordSpanSuccess(span)
			}
			span.End()
		}()
		report.TraceID = tracing.GetTraceID(ctx)
	}
	defer func() {
		report.Duration = time.Since(start)
		l.recorder.OnCycle(report, err)
	}()

	// Readings never carry over between cycles.
	l.session.Reset()
	readings, err := readGuarded(ctx, l.breaker, l.sensors)
	if err != nil {
		return report, err
	}
	n := 0
	for _, name := range sortedNames(readings) {
		if !l.inputs[name] {
			continue
		}
		if err := l.session.SetInput(name, readings[name]); err != nil {
			return report, err
		}
		n++
	}
	if err := l.compute(ctx, n); err != nil {
		return report, err
	}

	report.Inputs = make(map[string]float64, len(l.inputs))
	for name := range l.inputs {
		if v, ok := l.session.Input(name); ok {
			report.Inputs[name] = v
		}
	}
	report.Clamps = l.session.Clamps()

	applied := make(map[string]float64)
	for _, name := range l.engine.Consequents() {
		v, err := l.session.Output(name)
		switch {
		case err == nil:
			applied[name] = v
		case errors.Is(err, core.ErrNoRuleFired):
			report.Fallbacks = append(report.Fallbacks, name)
			l.recorder.OnFallback(name, l.cfg.Policy)
			if fb, ok := l.fallback(name); ok {
				applied[name] = fb
			}
		default:
			return report, err
		}
	}

	if err := l.actuators.Apply(ctx, applied); err != nil {
		return report, fmt.Errorf("apply outputs: %w", err)
	}
	for name, v := range applied {
		l.last[name] = v
	}
	report.Outputs = applied
	return report, nil
}

// compute runs the inference pass, inside a compute span when traced.
func (l *Loop) compute(ctx context.Context, inputs int) error {
	if l.tracer == nil {
		return l.session.Compute()
	}
	_, span := l.tracer.StartComputeSpan(ctx, l.engine.Name())
	defer span.End()

	start := time.Now()
	err := l.session.Compute()
	tracing.RecordSpanDuration(span, time.Since(start))
	attrs := map[string]interface{}{
		"fuzzy.inputs": inputs,
		"fuzzy.clamps": len(l.session.Clamps()),
	}
	if err != nil {
		tracing.AddSpanAttributes(span, attrs)
		tracing.RecordSpanError(span, err)
		return err
	}
	if res, rerr := l.session.Result(); rerr == nil {
		if unfired := res.Unfired(); len(unfired) > 0 {
			attrs["fuzzy.unfired"] = unfired
		}
	}
	tracing.AddSpanAttributes(span, attrs)
	tracing.RecordSpanSuccess(span)
	return nil
}

func (l *Loop) fallback(name string) (float64, bool) {
	if l.cfg.Policy == HoldLast {
		if v, ok := l.last[name]; ok {
			return v, true
		}
	}
	v, ok := l.cfg.Defaults[name]
	return v, ok
}

func sortedNames(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
