// Package testkit runs regression cases declared alongside a fuzzy system.
package testkit

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/engine"
)

// DefaultTolerance applies when an expectation sets a value but no tolerance.
const DefaultTolerance = 0.5

// Expectation constrains one output of a case. Value, Min and Max may be
// combined; NoRuleFired excludes the others.
type Expectation struct {
	Value       *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Tolerance   float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	NoRuleFired bool     `json:"no_rule_fired,omitempty" yaml:"no_rule_fired,omitempty"`
}

// Case is one input assignment and the outputs it must produce.
type Case struct {
	Name   string                 `json:"name" yaml:"name"`
	Inputs map[string]float64     `json:"inputs" yaml:"inputs"`
	Expect map[string]Expectation `json:"expect" yaml:"expect"`
}

// Failure describes a case that did not hold.
type Failure struct {
	Case   string
	Output string
	Reason string
}

func (f Failure) String() string {
	if f.Output == "" {
		return fmt.Sprintf("%s: %s", f.Case, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", f.Case, f.Output, f.Reason)
}

// Runner evaluates cases against an engine or any memoizing wrapper of one.
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

// Run evaluates every case and aggregates metrics. pass is true when no
// case failed.
func (r *Runner) Run(ev engine.Evaluator, cases []Case) (metrics map[string]float64, pass bool, failures []Failure) {
	metrics = map[string]float64{
		"cases_total":       0,
		"cases_passed":      0,
		"cases_failed":      0,
		"duration_ms_total": 0,
	}

	for _, tc := range cases {
		start := time.Now()
		res, err := ev.Evaluate(tc.Inputs)
		metrics["duration_ms_total"] += float64(time.Since(start).Microseconds()) / 1000
		metrics["cases_total"]++

		var caseFailures []Failure
		if err != nil {
			caseFailures = append(caseFailures, Failure{Case: tc.Name, Reason: err.Error()})
		} else {
			caseFailures = checkCase(tc, res)
		}

		if len(caseFailures) == 0 {
			metrics["cases_passed"]++
		} else {
			metrics["cases_failed"]++
			failures = append(failures, caseFailures...)
		}
	}

	return metrics, len(failures) == 0, failures
}

func checkCase(tc Case, res *engine.Result) []Failure {
	names := make([]string, 0, len(tc.Expect))
	for name := range tc.Expect {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Failure
	for _, name := range names {
		if reason := check(tc.Expect[name], res, name); reason != "" {
			out = append(out, Failure{Case: tc.Name, Output: name, Reason: reason})
		}
	}
	return out
}

func check(exp Expectation, res *engine.Result, name string) string {
	v, err := res.Output(name)
	switch {
	case errors.Is(err, core.ErrNoRuleFired):
		if exp.NoRuleFired {
			return ""
		}
		return "no rule fired"
	case err != nil:
		return err.Error()
	case exp.NoRuleFired:
		return fmt.Sprintf("expected no rule to fire, got %g", v)
	}

	if exp.Value != nil {
		tol := exp.Tolerance
		if tol <= 0 {
			tol = DefaultTolerance
		}
		if math.Abs(v-*exp.Value) > tol {
			return fmt.Sprintf("got %g, want %g ± %g", v, *exp.Value, tol)
		}
	}
	if exp.Min != nil && v < *exp.Min {
		return fmt.Sprintf("got %g, want >= %g", v, *exp.Min)
	}
	if exp.Max != nil && v > *exp.Max {
		return fmt.Sprintf("got %g, want <= %g", v, *exp.Max)
	}
	return ""
}
