package core

import (
	"fmt"
	"math"
)

// Grader resolves the truth degree of "variable is term" for the current
// inputs.
type Grader interface {
	Grade(variable, term string) (float64, error)
}

// Expr is a rule antecedent: a tree of TermRef leaves joined by AndExpr,
// OrExpr and NotExpr. And is min, Or is max and Not is the complement.
type Expr interface {
	Eval(g Grader) (float64, error)
	// Walk calls fn for every leaf in left-to-right order.
	Walk(fn func(TermRef))
	String() string
}

// TermRef is the leaf "Variable is Term".
type TermRef struct {
	Variable string
	Term     string
}

type AndExpr struct{ Left, Right Expr }

type OrExpr struct{ Left, Right Expr }

type NotExpr struct{ Inner Expr }

func Is(variable, term string) TermRef { return TermRef{Variable: variable, Term: term} }

func IsNot(variable, term string) NotExpr { return NotExpr{Inner: Is(variable, term)} }

func And(l, r Expr) AndExpr { return AndExpr{Left: l, Right: r} }

func Or(l, r Expr) OrExpr { return OrExpr{Left: l, Right: r} }

func Not(e Expr) NotExpr { return NotExpr{Inner: e} }

// All folds its operands left into nested AndExpr. It returns nil when
// called without operands.
func All(es ...Expr) Expr {
	return fold(es, func(l, r Expr) Expr { return And(l, r) })
}

// Any folds its operands left into nested OrExpr.
func Any(es ...Expr) Expr {
	return fold(es, func(l, r Expr) Expr { return Or(l, r) })
}

func fold(es []Expr, join func(l, r Expr) Expr) Expr {
	if len(es) == 0 {
		return nil
	}
	acc := es[0]
	for _, e := range es[1:] {
		acc = join(acc, e)
	}
	return acc
}

func (t TermRef) Eval(g Grader) (float64, error) {
	return g.Grade(t.Variable, t.Term)
}

func (t TermRef) Walk(fn func(TermRef)) { fn(t) }

func (t TermRef) String() string { return t.Variable + " is " + t.Term }

func (e AndExpr) Eval(g Grader) (float64, error) {
	l, r, err := evalPair(g, e.Left, e.Right)
	if err != nil {
		return 0, err
	}
	return math.Min(l, r), nil
}

func (e AndExpr) Walk(fn func(TermRef)) {
	walk(e.Left, fn)
	walk(e.Right, fn)
}

func (e AndExpr) String() string { return "(" + str(e.Left) + " and " + str(e.Right) + ")" }

func (e OrExpr) Eval(g Grader) (float64, error) {
	l, r, err := evalPair(g, e.Left, e.Right)
	if err != nil {
		return 0, err
	}
	return math.Max(l, r), nil
}

func (e OrExpr) Walk(fn func(TermRef)) {
	walk(e.Left, fn)
	walk(e.Right, fn)
}

func (e OrExpr) String() string { return "(" + str(e.Left) + " or " + str(e.Right) + ")" }

func (e NotExpr) Eval(g Grader) (float64, error) {
	if e.Inner == nil {
		return 0, fmt.Errorf("%w: empty operand in not", ErrInvalidParameter)
	}
	v, err := e.Inner.Eval(g)
	if err != nil {
		return 0, err
	}
	return 1 - v, nil
}

func (e NotExpr) Walk(fn func(TermRef)) { walk(e.Inner, fn) }

func (e NotExpr) String() string { return "not " + str(e.Inner) }

func evalPair(g Grader, l, r Expr) (float64, float64, error) {
	if l == nil || r == nil {
		return 0, 0, fmt.Errorf("%w: empty operand", ErrInvalidParameter)
	}
	lv, err := l.Eval(g)
	if err != nil {
		return 0, 0, err
	}
	rv, err := r.Eval(g)
	if err != nil {
		return 0, 0, err
	}
	return lv, rv, nil
}

func walk(e Expr, fn func(TermRef)) {
	if e != nil {
		e.Walk(fn)
	}
}

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// Grades is a fixed table of degrees, handy for evaluating expressions
// outside an engine.
type Grades map[TermRef]float64

func (g Grades) Grade(variable, term string) (float64, error) {
	v, ok := g[Is(variable, term)]
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s", ErrMissingInput, variable, term)
	}
	return v, nil
}
