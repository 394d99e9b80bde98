package system

import (
	"errors"
	"fmt"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/engine"
)

// Build validates the declaration and produces an engine. Every problem is
// reported, joined, in a single error.
func (s *System) Build(opts ...engine.Option) (*engine.Engine, error) {
	b := engine.NewBuilder(s.Name)
	var errs []error

	for _, v := range s.Antecedents {
		u, terms, err := v.compile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v.Defuzzify != "" {
			errs = append(errs, fmt.Errorf("%w: antecedent %q sets defuzzify", core.ErrInvalidParameter, v.Name))
		}
		b.Antecedent(v.Name, u, terms...)
	}
	for _, v := range s.Consequents {
		u, terms, err := v.compile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.Consequent(v.Name, u, terms...)
		if v.Defuzzify != "" {
			b.Defuzzify(v.Name, core.DefuzzMethod(v.Defuzzify))
		}
	}
	for i, r := range s.Rules {
		rule, err := r.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Name, err))
			continue
		}
		b.Rule(rule)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build(opts...)
}

func (v VariableSpec) compile() (core.Universe, []core.Term, error) {
	var errs []error
	u, err := core.NewUniverse(v.Universe.Min, v.Universe.Max, v.Universe.Step)
	if err != nil {
		errs = append(errs, fmt.Errorf("variable %q: %w", v.Name, err))
	}
	terms := make([]core.Term, 0, len(v.Terms))
	for _, t := range v.Terms {
		mf, err := t.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("term %s.%s: %w", v.Name, t.Name, err))
			continue
		}
		terms = append(terms, core.NewTerm(t.Name, mf))
	}
	if len(errs) > 0 {
		return core.Universe{}, nil, errors.Join(errs...)
	}
	return u, terms, nil
}

func (t TermSpec) compile() (core.MembershipFunction, error) {
	shapes := 0
	if t.Triangular != nil {
		shapes++
	}
	if t.Trapezoidal != nil {
		shapes++
	}
	if t.Gaussian != nil {
		shapes++
	}
	if shapes != 1 {
		return nil, fmt.Errorf("%w: exactly one of triangular, trapezoidal, gaussian is required", core.ErrInvalidParameter)
	}

	switch {
	case t.Triangular != nil:
		p := t.Triangular
		if len(p) != 3 {
			return nil, fmt.Errorf("%w: triangular takes 3 points, got %d", core.ErrInvalidParameter, len(p))
		}
		return core.NewTriangular(p[0], p[1], p[2])
	case t.Trapezoidal != nil:
		p := t.Trapezoidal
		if len(p) != 4 {
			return nil, fmt.Errorf("%w: trapezoidal takes 4 points, got %d", core.ErrInvalidParameter, len(p))
		}
		return core.NewTrapezoidal(p[0], p[1], p[2], p[3])
	default:
		return core.NewGaussian(t.Gaussian.Mean, t.Gaussian.Sigma)
	}
}

func (r RuleSpec) compile() (core.Rule, error) {
	cond, err := r.If.Compile()
	if err != nil {
		return core.Rule{}, err
	}
	then := make([]core.Conclusion, 0, len(r.Then))
	for _, c := range r.Then {
		conclusion := core.Then(c.Output, c.Term)
		if c.Weight != nil {
			conclusion = conclusion.WithWeight(*c.Weight)
		}
		then = append(then, conclusion)
	}
	return core.NewRule(r.Name, cond, then...), nil
}
