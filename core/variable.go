package core

import (
	"errors"
	"fmt"
)

// Role tells whether a variable feeds rule conditions or receives conclusions.
type Role int

const (
	Antecedent Role = iota
	Consequent
)

func (r Role) String() string {
	switch r {
	case Antecedent:
		return "antecedent"
	case Consequent:
		return "consequent"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// DefuzzMethod selects how an aggregated set is reduced to a crisp value.
type DefuzzMethod string

const (
	Centroid          DefuzzMethod = "centroid"
	Bisector          DefuzzMethod = "bisector"
	MeanOfMaximum     DefuzzMethod = "mom"
	SmallestOfMaximum DefuzzMethod = "som"
	LargestOfMaximum  DefuzzMethod = "lom"
)

func (m DefuzzMethod) Valid() bool {
	switch m {
	case Centroid, Bisector, MeanOfMaximum, SmallestOfMaximum, LargestOfMaximum:
		return true
	}
	return false
}

// Term is a named fuzzy category of a variable.
type Term struct {
	Name string
	MF   MembershipFunction
}

func NewTerm(name string, mf MembershipFunction) Term {
	return Term{Name: name, MF: mf}
}

// Variable is a linguistic variable: a universe plus its named terms.
type Variable struct {
	name     string
	role     Role
	universe Universe
	terms    []Term
	index    map[string]int
	method   DefuzzMethod
}

// VariableOption customizes a variable at construction.
type VariableOption func(*Variable)

// WithDefuzzification sets the reduction method of a consequent.
func WithDefuzzification(m DefuzzMethod) VariableOption {
	return func(v *Variable) { v.method = m }
}

// NewVariable validates the universe and every term. All problems found are
// returned together.
func NewVariable(name string, role Role, universe Universe, terms []Term, opts ...VariableOption) (*Variable, error) {
	v := &Variable{
		name:     name,
		role:     role,
		universe: universe,
		terms:    make([]Term, 0, len(terms)),
		index:    make(map[string]int, len(terms)),
		method:   Centroid,
	}
	for _, opt := range opts {
		opt(v)
	}

	var errs []error
	if name == "" {
		errs = append(errs, fmt.Errorf("%w: variable name is empty", ErrInvalidParameter))
	}
	if !universe.valid() {
		errs = append(errs, fmt.Errorf("%w: variable %q has no universe", ErrInvalidParameter, name))
	}
	if !v.method.Valid() {
		errs = append(errs, fmt.Errorf("%w: variable %q has unknown defuzzification method %q", ErrInvalidParameter, name, v.method))
	}
	for _, t := range terms {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%w: variable %q has a term without a name", ErrInvalidParameter, name))
			continue
		}
		if _, dup := v.index[t.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q in variable %q", ErrDuplicateTermName, t.Name, name))
			continue
		}
		if t.MF == nil {
			errs = append(errs, fmt.Errorf("%w: term %s.%s has no membership function", ErrInvalidParameter, name, t.Name))
			continue
		}
		if err := t.MF.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("term %s.%s: %w", name, t.Name, err))
			continue
		}
		v.index[t.Name] = len(v.terms)
		v.terms = append(v.terms, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return v, nil
}

func (v *Variable) Name() string                  { return v.name }
func (v *Variable) Role() Role                    { return v.role }
func (v *Variable) Universe() Universe            { return v.universe }
func (v *Variable) Defuzzification() DefuzzMethod { return v.method }

// Term looks up a membership function by term name.
func (v *Variable) Term(name string) (MembershipFunction, bool) {
	i, ok := v.index[name]
	if !ok {
		return nil, false
	}
	return v.terms[i].MF, true
}

// TermNames lists term names in declaration order.
func (v *Variable) TermNames() []string {
	names := make([]string, len(v.terms))
	for i, t := range v.terms {
		names[i] = t.Name
	}
	return names
}

// Degree evaluates term at x.
func (v *Variable) Degree(term string, x float64) (float64, error) {
	mf, ok := v.Term(term)
	if !ok {
		return 0, fmt.Errorf("%w: term %s.%s", ErrUnknownVariableReference, v.name, term)
	}
	return mf.Degree(x), nil
}
