package system

import "github.com/snow-ghost/fuzzyctl/testkit"

// UniverseSpec declares the sampled domain of a variable
type UniverseSpec struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
}

// GaussianSpec holds the parameters of a bell-shaped term
type GaussianSpec struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// TermSpec declares one term; exactly one shape must be set
type TermSpec struct {
	Name        string        `json:"name" yaml:"name"`
	Triangular  []float64     `json:"triangular,omitempty" yaml:"triangular,omitempty,flow"`   // a, b, c
	Trapezoidal []float64     `json:"trapezoidal,omitempty" yaml:"trapezoidal,omitempty,flow"` // a, b, c, d
	Gaussian    *GaussianSpec `json:"gaussian,omitempty" yaml:"gaussian,omitempty"`
}

// VariableSpec declares an antecedent or consequent
type VariableSpec struct {
	Name     string       `json:"name" yaml:"name"`
	Universe UniverseSpec `json:"universe" yaml:"universe"`
	Terms    []TermSpec   `json:"terms" yaml:"terms"`

	// Consequents only.
	Defuzzify string   `json:"defuzzify,omitempty" yaml:"defuzzify,omitempty"` // centroid|bisector|mom|som|lom
	Fallback  *float64 `json:"fallback,omitempty" yaml:"fallback,omitempty"`   // control-loop value when no rule fires
}

// ConclusionSpec names an output term; Weight defaults to 1
type ConclusionSpec struct {
	Output string   `json:"output" yaml:"output"`
	Term   string   `json:"term" yaml:"term"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// RuleSpec declares one rule
type RuleSpec struct {
	Name string           `json:"name,omitempty" yaml:"name,omitempty"`
	If   ExprSpec         `json:"if" yaml:"if"`
	Then []ConclusionSpec `json:"then" yaml:"then"`
}

// System is a complete fuzzy system declaration
type System struct {
	Name        string         `json:"name" yaml:"name"`
	Antecedents []VariableSpec `json:"antecedents" yaml:"antecedents"`
	Consequents []VariableSpec `json:"consequents" yaml:"consequents"`
	Rules       []RuleSpec     `json:"rules" yaml:"rules"`
	Cases       []testkit.Case `json:"cases,omitempty" yaml:"cases,omitempty"`
}

// GetAntecedent returns an antecedent declaration by name
func (s *System) GetAntecedent(name string) *VariableSpec {
	for i := range s.Antecedents {
		if s.Antecedents[i].Name == name {
			return &s.Antecedents[i]
		}
	}
	return nil
}

// GetConsequent returns a consequent declaration by name
func (s *System) GetConsequent(name string) *VariableSpec {
	for i := range s.Consequents {
		if s.Consequents[i].Name == name {
			return &s.Consequents[i]
		}
	}
	return nil
}

// Fallbacks returns the configured no-rule-fired values by consequent
func (s *System) Fallbacks() map[string]float64 {
	out := make(map[string]float64)
	for _, c := range s.Consequents {
		if c.Fallback != nil {
			out[c.Name] = *c.Fallback
		}
	}
	return out
}

// GetTotalRules returns the number of rules
func (s *System) GetTotalRules() int {
	return len(s.Rules)
}
