// Package sim models a plant-factory greenhouse closely enough to exercise a
// controller: ambient drift over a day, lamps on a photoperiod and actuators
// that push temperature, CO2, substrate humidity and light.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/snow-ghost/fuzzyctl/pkg/crops"
)

// Reading and actuator names, matching the embedded lettuce controller.
const (
	Temperature       = "temperature"
	CO2               = "co2"
	SubstrateHumidity = "substrate_humidity"
	LightIntensity    = "light_intensity"

	LightAdjust = "light_adjust"
	Heating     = "heating"
	Ventilation = "ventilation"
	CO2Injector = "co2_injector"
	Irrigation  = "irrigation"
)

// Plant response per simulated hour at full actuator power.
const (
	ambientCoupling = 0.15  // 1/h, passive exchange with outside air
	heatGain        = 6.0   // °C/h
	lampHeat        = 1.0   // °C/h with lamps at full power
	ventExchange    = 1.5   // 1/h, forced exchange with outside air
	co2Injection    = 900.0 // ppm/h
	co2Uptake       = 150.0 // ppm/h at full light
	irrigationGain  = 30.0  // %/h
	evaporation     = 2.0   // %/h at 20 °C
	maxLight        = 300.0
	maxSubstep      = 0.1 // h per integration step
)

// State is the physical condition of the greenhouse
type State struct {
	Hour              float64 // time of day, [0, 24)
	Temperature       float64 // °C
	CO2               float64 // ppm
	SubstrateHumidity float64 // %
	Light             float64 // 0..300
	PH                float64
}

// Config holds greenhouse settings
type Config struct {
	Start        State
	Step         time.Duration // simulated time per Apply
	TimeFactor   float64       // simulation speed multiplier
	LightsOn     float64       // hour the lamps switch on
	Photoperiod  float64       // hours the lamps stay on
	AmbientDay   float64       // outside temperature peak, °C
	AmbientNight float64       // outside temperature trough, °C
	OutdoorCO2   float64       // ppm
}

// DefaultConfig starts a cold, dry morning in a lettuce house
func DefaultConfig() Config {
	return Config{
		Start: State{
			Hour:              6,
			Temperature:       12,
			CO2:               450,
			SubstrateHumidity: 35,
			PH:                6.8,
		},
		Step:         5 * time.Minute,
		TimeFactor:   1,
		LightsOn:     6,
		Photoperiod:  16,
		AmbientDay:   14,
		AmbientNight: 8,
		OutdoorCO2:   400,
	}
}

// ConfigFor adapts the default configuration to a crop's photoperiod and
// substrate pH
func ConfigFor(p crops.Profile) Config {
	cfg := DefaultConfig()
	cfg.Photoperiod = p.Photoperiod.Max
	cfg.Start.PH = p.PH.Mid()
	return cfg
}

// Greenhouse implements loop.Sensors and loop.Actuators. Each Apply holds
// the commands for one step and advances the plant.
type Greenhouse struct {
	mu       sync.Mutex
	cfg      Config
	state    State
	commands map[string]float64
	elapsed  time.Duration
}

// New creates a greenhouse
func New(cfg Config) (*Greenhouse, error) {
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %s", cfg.Step)
	}
	if cfg.TimeFactor <= 0 {
		cfg.TimeFactor = 1
	}
	if cfg.Photoperiod < 0 || cfg.Photoperiod > 24 {
		return nil, fmt.Errorf("photoperiod must be within 0..24 hours, got %g", cfg.Photoperiod)
	}
	g := &Greenhouse{
		cfg:      cfg,
		state:    cfg.Start,
		commands: make(map[string]float64),
	}
	g.state.Hour = math.Mod(g.state.Hour, 24)
	return g, nil
}

// Read returns the current sensor readings
func (g *Greenhouse) Read(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return map[string]float64{
		Temperature:       g.state.Temperature,
		CO2:               g.state.CO2,
		SubstrateHumidity: g.state.SubstrateHumidity,
		LightIntensity:    g.state.Light,
	}, nil
}

// Apply records actuator commands, in percent of full power, and advances
// the plant one step. Outputs missing from the map keep their previous
// command.
func (g *Greenhouse) Apply(ctx context.Context, outputs map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for name, v := range outputs {
		g.commands[name] = clamp(v, 0, 100)
	}
	for dt := g.cfg.Step.Hours() * g.cfg.TimeFactor; dt > 0; dt -= maxSubstep {
		g.advance(math.Min(dt, maxSubstep))
	}
	g.elapsed += time.Duration(float64(g.cfg.Step) * g.cfg.TimeFactor)
	return nil
}

// SetTimeFactor changes the simulation speed
func (g *Greenhouse) SetTimeFactor(f float64) {
	if f <= 0 {
		return
	}
	g.mu.Lock()
	g.cfg.TimeFactor = f
	g.mu.Unlock()
}

// Snapshot returns the current state
func (g *Greenhouse) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Elapsed returns the simulated time since start
func (g *Greenhouse) Elapsed() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.elapsed
}

// LampsOn reports whether the photoperiod has the lamps lit at the
// current hour.
func (g *Greenhouse) LampsOn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lampsOn(g.state.Hour)
}

func (g *Greenhouse) lampsOn(hour float64) bool {
	since := math.Mod(hour-g.cfg.LightsOn+24, 24)
	return since < g.cfg.Photoperiod
}

// ambient follows a sinusoid peaking at 15:00.
func (g *Greenhouse) ambient(hour float64) float64 {
	mean := (g.cfg.AmbientDay + g.cfg.AmbientNight) / 2
	amp := (g.cfg.AmbientDay - g.cfg.AmbientNight) / 2
	return mean + amp*math.Cos(2*math.Pi*(hour-15)/24)
}

func (g *Greenhouse) advance(dt float64) {
	s := &g.state
	cmd := func(name string) float64 { return g.commands[name] / 100 }

	if g.lampsOn(s.Hour) {
		s.Light = maxLight * cmd(LightAdjust)
	} else {
		s.Light = 0
	}
	light := s.Light / maxLight

	outside := g.ambient(s.Hour)
	exchange := ambientCoupling + ventExchange*cmd(Ventilation)

	s.Temperature += dt * (exchange*(outside-s.Temperature) + heatGain*cmd(Heating) + lampHeat*light)
	s.CO2 += dt * (exchange*(g.cfg.OutdoorCO2-s.CO2) + co2Injection*cmd(CO2Injector) - co2Uptake*light)
	s.SubstrateHumidity += dt * (irrigationGain*cmd(Irrigation) - evaporation*math.Max(s.Temperature, 0)/20)

	s.CO2 = math.Max(s.CO2, 0)
	s.SubstrateHumidity = clamp(s.SubstrateHumidity, 0, 100)
	s.Hour = math.Mod(s.Hour+dt, 24)
}

// InRange reports, per monitored quantity, whether the greenhouse sits
// inside the crop's optimum.
func (g *Greenhouse) InRange(p crops.Profile) map[string]bool {
	s := g.Snapshot()
	return map[string]bool{
		Temperature:       p.Temperature.Contains(s.Temperature),
		CO2:               p.CO2.Contains(s.CO2),
		SubstrateHumidity: p.Humidity.Contains(s.SubstrateHumidity),
		"ph":              p.PH.Contains(s.PH),
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
