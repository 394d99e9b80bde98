package core

import (
	"fmt"
	"strings"
)

// Conclusion names the consequent term a rule activates and the weight
// applied to the rule strength before clipping.
type Conclusion struct {
	Variable string
	Term     string
	Weight   float64
}

// Then is a conclusion with full weight.
func Then(variable, term string) Conclusion {
	return Conclusion{Variable: variable, Term: term, Weight: 1}
}

// WithWeight returns a copy of c scaled by w.
func (c Conclusion) WithWeight(w float64) Conclusion {
	c.Weight = w
	return c
}

func (c Conclusion) String() string {
	if c.Weight == 1 {
		return c.Variable + " is " + c.Term
	}
	return fmt.Sprintf("%s is %s (weight %g)", c.Variable, c.Term, c.Weight)
}

// Rule is "if If then Then...". Name is optional and only used in
// diagnostics.
type Rule struct {
	Name string
	If   Expr
	Then []Conclusion
}

// NewRule builds a rule with one or more conclusions.
func NewRule(name string, antecedent Expr, conclusions ...Conclusion) Rule {
	return Rule{Name: name, If: antecedent, Then: conclusions}
}

// Antecedents lists the distinct variables referenced by the condition.
func (r Rule) Antecedents() []string {
	seen := make(map[string]bool)
	var out []string
	walk(r.If, func(t TermRef) {
		if !seen[t.Variable] {
			seen[t.Variable] = true
			out = append(out, t.Variable)
		}
	})
	return out
}

func (r Rule) String() string {
	parts := make([]string, len(r.Then))
	for i, c := range r.Then {
		parts[i] = c.String()
	}
	return "if " + str(r.If) + " then " + strings.Join(parts, ", ")
}
