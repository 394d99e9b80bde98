package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/snow-ghost/fuzzyctl/core"
)

// Engine is a validated, immutable Mamdani inference system. It is safe for
// concurrent use; per-cycle state lives in a Session.
type Engine struct {
	name        string
	vars        map[string]*core.Variable
	antecedents []*core.Variable
	consequents []*core.Variable
	rules       []core.Rule
	// required holds the antecedents referenced by at least one rule.
	required []string
	// shapes holds each consequent term sampled over its universe.
	shapes   map[string]map[string][]float64
	observer Observer
}

// Option configures an engine at build time.
type Option func(*Engine)

// WithObserver routes clamp, no-rule-fired and compute events to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// Evaluator computes a result for a complete input assignment.
type Evaluator interface {
	Evaluate(inputs map[string]float64) (*Result, error)
}

func (e *Engine) Name() string { return e.name }

// Variable looks up a declared variable.
func (e *Engine) Variable(name string) (*core.Variable, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Antecedents lists input variable names in declaration order.
func (e *Engine) Antecedents() []string { return names(e.antecedents) }

// Consequents lists output variable names in declaration order.
func (e *Engine) Consequents() []string { return names(e.consequents) }

// Required lists the antecedents a compute needs values for.
func (e *Engine) Required() []string { return append([]string(nil), e.required...) }

// Rules returns a copy of the rule base.
func (e *Engine) Rules() []core.Rule { return append([]core.Rule(nil), e.rules...) }

// Clamp validates an input value for an antecedent and pulls it into the
// universe. The returned Clamp is only meaningful when clamped is true.
func (e *Engine) Clamp(name string, value float64) (applied float64, c Clamp, clamped bool, err error) {
	v, ok := e.vars[name]
	if !ok || v.Role() != core.Antecedent {
		return 0, Clamp{}, false, fmt.Errorf("%w: %q is not an input", core.ErrUnknownVariable, name)
	}
	if math.IsNaN(value) {
		return 0, Clamp{}, false, fmt.Errorf("%w: %s is NaN", core.ErrInvalidParameter, name)
	}
	applied, clamped = v.Universe().Clamp(value)
	if clamped {
		c = Clamp{Variable: name, Requested: value, Applied: applied}
	}
	return applied, c, clamped, nil
}

// Evaluate runs one inference pass. Out-of-universe inputs are clamped and
// reported in Result.Clamps; every input a rule references must be present.
func (e *Engine) Evaluate(inputs map[string]float64) (*Result, error) {
	applied := make(map[string]float64, len(inputs))
	var clamps []Clamp
	for _, name := range sortedKeys(inputs) {
		v, c, clamped, err := e.Clamp(name, inputs[name])
		if err != nil {
			e.observer.OnCompute(e.name, 0, err)
			return nil, err
		}
		if clamped {
			clamps = append(clamps, c)
			e.observer.OnClamp(e.name, c)
		}
		applied[name] = v
	}
	return e.evaluate(applied, clamps)
}

func (e *Engine) evaluate(inputs map[string]float64, clamps []Clamp) (res *Result, err error) {
	start := time.Now()
	defer func() { e.observer.OnCompute(e.name, time.Since(start), err) }()

	var missing []string
	for _, name := range e.required {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingInput, strings.Join(missing, ", "))
	}

	g := grader{engine: e, inputs: inputs}
	sets := make(map[string][]float64, len(e.consequents))
	for _, v := range e.consequents {
		sets[v.Name()] = make([]float64, v.Universe().Len())
	}

	activations := make([]Activation, len(e.rules))
	for i, r := range e.rules {
		strength, err := r.If.Eval(g)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", ruleLabel(i, r), err)
		}
		activations[i] = Activation{Index: i, Name: r.Name, Strength: strength}
		for _, c := range r.Then {
			clip(sets[c.Variable], e.shapes[c.Variable][c.Term], strength*c.Weight)
		}
	}

	outputs := make(map[string]Output, len(e.consequents))
	for _, v := range e.consequents {
		crisp, ok := Defuzzify(v.Defuzzification(), v.Universe().Samples(), sets[v.Name()])
		outputs[v.Name()] = Output{Value: crisp, Fired: ok}
		if !ok {
			e.observer.OnNoRuleFired(e.name, v.Name())
		}
	}

	copied := make(map[string]float64, len(inputs))
	for k, v := range inputs {
		copied[k] = v
	}
	return &Result{
		System:      e.name,
		Inputs:      copied,
		Clamps:      clamps,
		Activations: activations,
		order:       names(e.consequents),
		outputs:     outputs,
		sets:        sets,
	}, nil
}

// clip raises agg to min(level, shape) pointwise. Levels at or below zero
// contribute nothing.
func clip(agg, shape []float64, level float64) {
	if level <= 0 {
		return
	}
	if level > 1 {
		level = 1
	}
	for i, mu := range shape {
		if mu > level {
			mu = level
		}
		if mu > agg[i] {
			agg[i] = mu
		}
	}
}

type grader struct {
	engine *Engine
	inputs map[string]float64
}

func (g grader) Grade(variable, term string) (float64, error) {
	x, ok := g.inputs[variable]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrMissingInput, variable)
	}
	v, ok := g.engine.vars[variable]
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownVariable, variable)
	}
	return v.Degree(term, x)
}

func names(vs []*core.Variable) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name()
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
