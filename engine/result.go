package engine

import (
	"fmt"

	"github.com/snow-ghost/fuzzyctl/core"
)

// Activation is the firing strength of one rule in a pass.
type Activation struct {
	Index    int
	Name     string
	Strength float64
}

// Output is the crisp value of one consequent. Value is meaningless when
// Fired is false.
type Output struct {
	Value float64
	Fired bool
}

// Result is the outcome of one inference pass. It is read-only and may be
// shared between sessions.
type Result struct {
	System      string
	Inputs      map[string]float64
	Clamps      []Clamp
	Activations []Activation

	order   []string
	outputs map[string]Output
	sets    map[string][]float64
}

// Output returns the crisp value of a consequent, or ErrNoRuleFired when
// its aggregated set is empty.
func (r *Result) Output(name string) (float64, error) {
	out, ok := r.outputs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not an output", core.ErrUnknownVariable, name)
	}
	if !out.Fired {
		return 0, fmt.Errorf("%w: %s", core.ErrNoRuleFired, name)
	}
	return out.Value, nil
}

// Outputs returns the consequents that fired.
func (r *Result) Outputs() map[string]float64 {
	out := make(map[string]float64, len(r.outputs))
	for name, o := range r.outputs {
		if o.Fired {
			out[name] = o.Value
		}
	}
	return out
}

// Unfired lists consequents no rule fired for, in declaration order.
func (r *Result) Unfired() []string {
	var out []string
	for _, name := range r.order {
		if !r.outputs[name].Fired {
			out = append(out, name)
		}
	}
	return out
}

// Aggregated returns a copy of the aggregated set of a consequent, one
// degree per universe sample.
func (r *Result) Aggregated(name string) ([]float64, bool) {
	set, ok := r.sets[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), set...), true
}
