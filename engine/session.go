package engine

import (
	"fmt"

	"github.com/snow-ghost/fuzzyctl/core"
)

// State is the lifecycle position of a Session.
type State int

const (
	Idle State = iota
	InputsSet
	Computed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InputsSet:
		return "inputs-set"
	case Computed:
		return "computed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session holds the inputs and outputs of one control cycle. It is owned by
// a single caller and is not safe for concurrent use.
type Session struct {
	engine    *Engine
	evaluator Evaluator
	state     State
	inputs    map[string]float64
	clamps    map[string]Clamp
	result    *Result
}

// SessionOption configures a session.
type SessionOption func(*Session)

// WithEvaluator computes through ev instead of the engine directly, e.g. a
// memoizing cache in front of the engine. ev receives inputs already
// clamped into their universes.
func WithEvaluator(ev Evaluator) SessionOption {
	return func(s *Session) {
		if ev != nil {
			s.evaluator = ev
		}
	}
}

// NewSession starts an idle session over the engine.
func (e *Engine) NewSession(opts ...SessionOption) *Session {
	s := &Session{
		engine: e,
		inputs: make(map[string]float64),
		clamps: make(map[string]Clamp),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State { return s.state }

// SetInput assigns an antecedent. Values outside the universe are clamped to
// the nearest bound and recorded in Clamps. Any successful call invalidates
// previously computed outputs.
func (s *Session) SetInput(name string, value float64) error {
	applied, c, clamped, err := s.engine.Clamp(name, value)
	if err != nil {
		return err
	}
	if clamped {
		s.clamps[name] = c
		s.engine.observer.OnClamp(s.engine.name, c)
	} else {
		delete(s.clamps, name)
	}
	s.inputs[name] = applied
	s.result = nil
	s.state = InputsSet
	return nil
}

// SetInputs assigns several antecedents. Every value is checked first; on
// error the session is left untouched.
func (s *Session) SetInputs(values map[string]float64) error {
	names := sortedKeys(values)
	for _, name := range names {
		if _, _, _, err := s.engine.Clamp(name, values[name]); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := s.SetInput(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Input returns the value currently assigned to an antecedent, after
// clamping.
func (s *Session) Input(name string) (float64, bool) {
	v, ok := s.inputs[name]
	return v, ok
}

// Clamps lists the clamped values among the current inputs, ordered by
// variable name.
func (s *Session) Clamps() []Clamp {
	if len(s.clamps) == 0 {
		return nil
	}
	out := make([]Clamp, 0, len(s.clamps))
	for _, name := range sortedKeys(s.inputs) {
		if c, ok := s.clamps[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Compute runs inference over the current inputs. It either produces every
// output or fails without touching the session state.
func (s *Session) Compute() error {
	var (
		res *Result
		err error
	)
	if s.evaluator != nil {
		res, err = s.evaluator.Evaluate(s.inputs)
		if err == nil {
			res = withClamps(res, s.Clamps())
		}
	} else {
		res, err = s.engine.evaluate(s.inputs, s.Clamps())
	}
	if err != nil {
		return err
	}
	s.result = res
	s.state = Computed
	return nil
}

// withClamps returns res carrying clamps. Results from an evaluator may be
// shared, so a copy is made rather than writing to res.
func withClamps(res *Result, clamps []Clamp) *Result {
	if len(clamps) == 0 && len(res.Clamps) == 0 {
		return res
	}
	cp := *res
	cp.Clamps = clamps
	return &cp
}

// Output returns the crisp value of a consequent from the last Compute.
func (s *Session) Output(name string) (float64, error) {
	if s.state != Computed {
		return 0, fmt.Errorf("%w: session is %s", core.ErrNotComputed, s.state)
	}
	return s.result.Output(name)
}

// Outputs returns every consequent that fired in the last Compute.
func (s *Session) Outputs() (map[string]float64, error) {
	if s.state != Computed {
		return nil, fmt.Errorf("%w: session is %s", core.ErrNotComputed, s.state)
	}
	return s.result.Outputs(), nil
}

// Result returns the full outcome of the last Compute.
func (s *Session) Result() (*Result, error) {
	if s.state != Computed {
		return nil, fmt.Errorf("%w: session is %s", core.ErrNotComputed, s.state)
	}
	return s.result, nil
}

// Reset clears inputs and outputs and returns the session to Idle.
func (s *Session) Reset() {
	s.inputs = make(map[string]float64)
	s.clamps = make(map[string]Clamp)
	s.result = nil
	s.state = Idle
}
