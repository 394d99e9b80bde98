package engine

import (
	"fmt"
	"time"

	"github.com/snow-ghost/fuzzyctl/core"
)

// Clamp records an input pulled back into its universe.
type Clamp struct {
	Variable  string
	Requested float64
	Applied   float64
}

// Err describes the clamp as an ErrOutOfRange value for logging. The clamp
// itself is not a failure.
func (c Clamp) Err() error {
	return fmt.Errorf("%w: %s=%g clamped to %g", core.ErrOutOfRange, c.Variable, c.Requested, c.Applied)
}

// Observer receives the non-error fallbacks of an engine: clamped inputs
// and outputs no rule fired for. Implementations are shared by every
// session of an engine and must be safe for concurrent use.
type Observer interface {
	OnClamp(system string, c Clamp)
	OnNoRuleFired(system, variable string)
	OnCompute(system string, d time.Duration, err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnClamp(string, Clamp)                  {}
func (NopObserver) OnNoRuleFired(string, string)           {}
func (NopObserver) OnCompute(string, time.Duration, error) {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) OnClamp(system string, c Clamp) {
	for _, o := range m {
		o.OnClamp(system, c)
	}
}

func (m MultiObserver) OnNoRuleFired(system, variable string) {
	for _, o := range m {
		o.OnNoRuleFired(system, variable)
	}
}

func (m MultiObserver) OnCompute(system string, d time.Duration, err error) {
	for _, o := range m {
		o.OnCompute(system, d, err)
	}
}
