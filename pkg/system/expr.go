package system

import (
	"fmt"
	"strings"

	"github.com/snow-ghost/fuzzyctl/core"
	"gopkg.in/yaml.v3"
)

// ExprSpec is a rule condition. In YAML it is either a string
// ("temperature is low", "co2 is not high") or a mapping with exactly one of
// all, any or not.
type ExprSpec struct {
	Term string     `json:"term,omitempty" yaml:"-"`
	All  []ExprSpec `json:"all,omitempty" yaml:"all,omitempty"`
	Any  []ExprSpec `json:"any,omitempty" yaml:"any,omitempty"`
	Not  *ExprSpec  `json:"not,omitempty" yaml:"not,omitempty"`
}

// UnmarshalYAML accepts the scalar and mapping forms
func (e *ExprSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Term = value.Value
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: condition must be a string or a mapping", value.Line)
	}

	type plain ExprSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	set := 0
	if len(p.All) > 0 {
		set++
	}
	if len(p.Any) > 0 {
		set++
	}
	if p.Not != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("line %d: condition needs exactly one of all, any, not", value.Line)
	}
	*e = ExprSpec(p)
	return nil
}

// MarshalYAML writes leaves back as plain strings
func (e ExprSpec) MarshalYAML() (interface{}, error) {
	if e.Term != "" {
		return e.Term, nil
	}
	type plain ExprSpec
	return plain(e), nil
}

// Compile turns the declaration into an expression tree.
func (e ExprSpec) Compile() (core.Expr, error) {
	switch {
	case e.Term != "":
		return parseTerm(e.Term)
	case len(e.All) > 0:
		return compileAll(e.All, core.All)
	case len(e.Any) > 0:
		return compileAll(e.Any, core.Any)
	case e.Not != nil:
		inner, err := e.Not.Compile()
		if err != nil {
			return nil, err
		}
		return core.Not(inner), nil
	default:
		return nil, fmt.Errorf("%w: empty condition", core.ErrInvalidParameter)
	}
}

func compileAll(specs []ExprSpec, join func(...core.Expr) core.Expr) (core.Expr, error) {
	exprs := make([]core.Expr, 0, len(specs))
	for _, s := range specs {
		x, err := s.Compile()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, x)
	}
	return join(exprs...), nil
}

// parseTerm reads "<variable> is <term>" or "<variable> is not <term>".
func parseTerm(s string) (core.Expr, error) {
	f := strings.Fields(s)
	switch {
	case len(f) == 3 && f[1] == "is":
		return core.Is(f[0], f[2]), nil
	case len(f) == 4 && f[1] == "is" && f[2] == "not":
		return core.IsNot(f[0], f[3]), nil
	default:
		return nil, fmt.Errorf("%w: condition %q is not of the form \"<variable> is [not] <term>\"", core.ErrInvalidParameter, s)
	}
}
