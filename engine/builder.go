package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/snow-ghost/fuzzyctl/core"
)

type declaration struct {
	name     string
	role     core.Role
	universe core.Universe
	terms    []core.Term
	method   core.DefuzzMethod
}

// Builder collects variable and rule declarations and validates them once
// in Build. Builder methods never fail; every problem is reported by Build.
type Builder struct {
	name    string
	decls   []*declaration
	methods map[string]core.DefuzzMethod
	rules   []core.Rule
}

// NewBuilder starts a system declaration. The name labels logs and metrics.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		methods: make(map[string]core.DefuzzMethod),
	}
}

// Antecedent declares an input variable.
func (b *Builder) Antecedent(name string, u core.Universe, terms ...core.Term) *Builder {
	b.decls = append(b.decls, &declaration{name: name, role: core.Antecedent, universe: u, terms: terms})
	return b
}

// Consequent declares an output variable, defuzzified by centroid unless
// Defuzzify says otherwise.
func (b *Builder) Consequent(name string, u core.Universe, terms ...core.Term) *Builder {
	b.decls = append(b.decls, &declaration{name: name, role: core.Consequent, universe: u, terms: terms})
	return b
}

// Defuzzify selects the reduction method of a consequent.
func (b *Builder) Defuzzify(variable string, m core.DefuzzMethod) *Builder {
	b.methods[variable] = m
	return b
}

// Rule appends rules to the rule base.
func (b *Builder) Rule(rules ...core.Rule) *Builder {
	b.rules = append(b.rules, rules...)
	return b
}

// Build validates the declarations and returns an immutable engine. All
// problems are returned joined; no engine is returned alongside an error.
func (b *Builder) Build(opts ...Option) (*Engine, error) {
	var errs []error

	e := &Engine{
		name:     b.name,
		vars:     make(map[string]*core.Variable, len(b.decls)),
		shapes:   make(map[string]map[string][]float64),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, d := range b.decls {
		if _, dup := e.vars[d.name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", core.ErrDuplicateVariableName, d.name))
			continue
		}
		var vopts []core.VariableOption
		if m, ok := b.methods[d.name]; ok {
			if d.role != core.Consequent {
				errs = append(errs, fmt.Errorf("%w: defuzzification set on antecedent %q", core.ErrInvalidParameter, d.name))
			}
			vopts = append(vopts, core.WithDefuzzification(m))
		}
		v, err := core.NewVariable(d.name, d.role, d.universe, d.terms, vopts...)
		if err != nil {
			errs = append(errs, err)
			// Reserve the name so rules are not reported twice.
			e.vars[d.name] = nil
			continue
		}
		e.vars[d.name] = v
		if d.role == core.Antecedent {
			e.antecedents = append(e.antecedents, v)
		} else {
			e.consequents = append(e.consequents, v)
		}
	}
	for name := range b.methods {
		if _, ok := e.vars[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: defuzzification set on undeclared variable %q", core.ErrUnknownVariableReference, name))
		}
	}

	required := make(map[string]bool)
	for i, r := range b.rules {
		for _, err := range e.checkRule(r) {
			errs = append(errs, fmt.Errorf("rule %s: %w", ruleLabel(i, r), err))
		}
		for _, name := range r.Antecedents() {
			required[name] = true
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	e.rules = append([]core.Rule(nil), b.rules...)
	for _, v := range e.antecedents {
		if required[v.Name()] {
			e.required = append(e.required, v.Name())
		}
	}
	for _, v := range e.consequents {
		u := v.Universe()
		byTerm := make(map[string][]float64)
		for _, term := range v.TermNames() {
			mf, _ := v.Term(term)
			shape := make([]float64, u.Len())
			for i := range shape {
				shape[i] = mf.Degree(u.At(i))
			}
			byTerm[term] = shape
		}
		e.shapes[v.Name()] = byTerm
	}
	return e, nil
}

func (e *Engine) checkRule(r core.Rule) []error {
	var errs []error
	if r.If == nil {
		errs = append(errs, fmt.Errorf("%w: missing condition", core.ErrInvalidParameter))
	} else if err := checkShape(r.If); err != nil {
		errs = append(errs, err)
	}
	if len(r.Then) == 0 {
		errs = append(errs, fmt.Errorf("%w: no conclusions", core.ErrInvalidParameter))
	}

	if r.If != nil {
		r.If.Walk(func(t core.TermRef) {
			if err := e.checkRef(t.Variable, t.Term, core.Antecedent); err != nil {
				errs = append(errs, err)
			}
		})
	}
	for _, c := range r.Then {
		if err := e.checkRef(c.Variable, c.Term, core.Consequent); err != nil {
			errs = append(errs, err)
		}
		if math.IsNaN(c.Weight) || c.Weight < 0 || c.Weight > 1 {
			errs = append(errs, fmt.Errorf("%w: weight %g of %s.%s outside [0, 1]", core.ErrInvalidParameter, c.Weight, c.Variable, c.Term))
		}
	}
	return errs
}

func (e *Engine) checkRef(variable, term string, role core.Role) error {
	v, ok := e.vars[variable]
	if !ok {
		return fmt.Errorf("%w: variable %q", core.ErrUnknownVariableReference, variable)
	}
	if v == nil {
		// Declaration already failed and was reported.
		return nil
	}
	if v.Role() != role {
		return fmt.Errorf("%w: %q is not a declared %s", core.ErrUnknownVariableReference, variable, role)
	}
	if _, ok := v.Term(term); !ok {
		return fmt.Errorf("%w: term %s.%s", core.ErrUnknownVariableReference, variable, term)
	}
	return nil
}

// checkShape rejects nil operands in the built-in node types.
func checkShape(x core.Expr) error {
	switch n := x.(type) {
	case nil:
		return fmt.Errorf("%w: empty operand", core.ErrInvalidParameter)
	case core.AndExpr:
		return errors.Join(checkShape(n.Left), checkShape(n.Right))
	case core.OrExpr:
		return errors.Join(checkShape(n.Left), checkShape(n.Right))
	case core.NotExpr:
		return checkShape(n.Inner)
	default:
		return nil
	}
}

func ruleLabel(i int, r core.Rule) string {
	if r.Name != "" {
		return fmt.Sprintf("%d (%s)", i, r.Name)
	}
	return fmt.Sprintf("%d", i)
}
