package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heatingEngine is the single-rule "low temperature means high heating"
// system.
func heatingEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewBuilder("heating").
		Antecedent("temperature", core.MustUniverse(0, 40, 1),
			core.NewTerm("low", core.Triangular{A: 8, B: 13, C: 18})).
		Consequent("heating", core.MustUniverse(0, 100, 1),
			core.NewTerm("high", core.Triangular{A: 70, B: 90, C: 100})).
		Rule(core.NewRule("low-high", core.Is("temperature", "low"), core.Then("heating", "high"))).
		Build(opts...)
	require.NoError(t, err)
	return e
}

func TestEvaluateFullStrength(t *testing.T) {
	e := heatingEngine(t)

	res, err := e.Evaluate(map[string]float64{"temperature": 13})
	require.NoError(t, err)
	require.Len(t, res.Activations, 1)
	assert.Equal(t, 1.0, res.Activations[0].Strength)

	set, ok := res.Aggregated("heating")
	require.True(t, ok)
	high := core.Triangular{A: 70, B: 90, C: 100}
	for i, mu := range set {
		assert.Equal(t, high.Degree(float64(i)), mu, "sample %d", i)
	}

	got, err := res.Output("heating")
	require.NoError(t, err)
	// Discrete centroid of the (70, 90, 100) triangle.
	assert.InDelta(t, 86.6667, got, 1e-3)
}

func TestEvaluateNoRuleFired(t *testing.T) {
	e := heatingEngine(t)

	res, err := e.Evaluate(map[string]float64{"temperature": 30})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Activations[0].Strength)

	_, err = res.Output("heating")
	require.ErrorIs(t, err, core.ErrNoRuleFired)
	assert.Equal(t, []string{"heating"}, res.Unfired())
	assert.Empty(t, res.Outputs())
}

func TestEvaluateClipsAndWeights(t *testing.T) {
	e, err := NewBuilder("clip").
		Antecedent("temperature", core.MustUniverse(0, 40, 1),
			core.NewTerm("low", core.Triangular{A: 8, B: 13, C: 18})).
		Consequent("heating", core.MustUniverse(0, 100, 1),
			core.NewTerm("high", core.Triangular{A: 70, B: 85, C: 100})).
		Rule(core.NewRule("", core.Is("temperature", "low"), core.Then("heating", "high").WithWeight(0.5))).
		Build()
	require.NoError(t, err)

	res, err := e.Evaluate(map[string]float64{"temperature": 13})
	require.NoError(t, err)

	set, _ := res.Aggregated("heating")
	for _, mu := range set {
		assert.LessOrEqual(t, mu, 0.5)
	}
	assert.Equal(t, 0.5, set[85])

	got, err := res.Output("heating")
	require.NoError(t, err)
	assert.InDelta(t, 85, got, 1e-9)
}

func TestEvaluateMaxAggregation(t *testing.T) {
	e, err := NewBuilder("agg").
		Antecedent("temperature", core.MustUniverse(0, 40, 1),
			core.NewTerm("cold", core.Trapezoidal{A: 0, B: 0, C: 10, D: 20}),
			core.NewTerm("warm", core.Trapezoidal{A: 10, B: 20, C: 40, D: 40})).
		Consequent("heating", core.MustUniverse(0, 100, 1),
			core.NewTerm("off", core.Triangular{A: 0, B: 0, C: 50}),
			core.NewTerm("on", core.Triangular{A: 50, B: 100, C: 100})).
		Rule(
			core.NewRule("cold-on", core.Is("temperature", "cold"), core.Then("heating", "on")),
			core.NewRule("warm-off", core.Is("temperature", "warm"), core.Then("heating", "off")),
		).
		Build()
	require.NoError(t, err)

	res, err := e.Evaluate(map[string]float64{"temperature": 15})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Activations[0].Strength)
	assert.Equal(t, 0.5, res.Activations[1].Strength)

	set, _ := res.Aggregated("heating")
	assert.Equal(t, 0.5, set[0])
	assert.Equal(t, 0.0, set[50])
	assert.Equal(t, 0.5, set[100])

	got, err := res.Output("heating")
	require.NoError(t, err)
	assert.InDelta(t, 50, got, 1e-9)
}

func TestEvaluateClampsInputs(t *testing.T) {
	obs := &recordingObserver{}
	e := heatingEngine(t, WithObserver(obs))

	res, err := e.Evaluate(map[string]float64{"temperature": 50})
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.Inputs["temperature"])
	require.Len(t, res.Clamps, 1)
	assert.Equal(t, Clamp{Variable: "temperature", Requested: 50, Applied: 40}, res.Clamps[0])
	assert.ErrorIs(t, res.Clamps[0].Err(), core.ErrOutOfRange)

	assert.Equal(t, 1, obs.count("clamp"))
	assert.Equal(t, 1, obs.count("no-rule"))
	assert.Equal(t, 1, obs.count("compute"))
}

func TestEvaluateErrors(t *testing.T) {
	e := heatingEngine(t)

	_, err := e.Evaluate(map[string]float64{})
	require.ErrorIs(t, err, core.ErrMissingInput)

	_, err = e.Evaluate(map[string]float64{"temperature": 13, "pressure": 1})
	require.ErrorIs(t, err, core.ErrUnknownVariable)

	_, err = e.Evaluate(map[string]float64{"heating": 13})
	require.ErrorIs(t, err, core.ErrUnknownVariable)
}

func TestCentroidWithinUniverse(t *testing.T) {
	e, err := NewBuilder("bounds").
		Antecedent("x", core.MustUniverse(0, 10, 0.5),
			core.NewTerm("low", core.Gaussian{Mean: 0, Sigma: 3}),
			core.NewTerm("high", core.Gaussian{Mean: 10, Sigma: 3})).
		Consequent("y", core.MustUniverse(-20, 20, 0.25),
			core.NewTerm("neg", core.Trapezoidal{A: -20, B: -20, C: -15, D: 0}),
			core.NewTerm("pos", core.Trapezoidal{A: 0, B: 15, C: 20, D: 20})).
		Rule(
			core.NewRule("", core.Is("x", "low"), core.Then("y", "neg")),
			core.NewRule("", core.Is("x", "high"), core.Then("y", "pos")),
		).
		Build()
	require.NoError(t, err)

	for x := -5.0; x <= 15; x += 0.5 {
		res, err := e.Evaluate(map[string]float64{"x": x})
		require.NoError(t, err)
		y, err := res.Output("y")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, y, -20.0)
		assert.LessOrEqual(t, y, 20.0)
	}
}

func TestEngineConcurrentSessions(t *testing.T) {
	e := heatingEngine(t)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := e.NewSession()
			for n := 0; n < 50; n++ {
				if err := s.SetInput("temperature", 13); err != nil {
					t.Error(err)
					return
				}
				if err := s.Compute(); err != nil {
					t.Error(err)
					return
				}
			}
			v, err := s.Output("heating")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, results[0], v)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) add(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *recordingObserver) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == kind {
			n++
		}
	}
	return n
}

func (r *recordingObserver) OnClamp(string, Clamp)                  { r.add("clamp") }
func (r *recordingObserver) OnNoRuleFired(string, string)           { r.add("no-rule") }
func (r *recordingObserver) OnCompute(string, time.Duration, error) { r.add("compute") }
