// Package crops holds the optimum growing conditions of supported crops.
package crops

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCrop is returned for a crop without a profile.
var ErrUnknownCrop = errors.New("unknown crop")

// Range is a closed interval of acceptable values.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether x lies inside the range.
func (r Range) Contains(x float64) bool { return x >= r.Min && x <= r.Max }

// Mid returns the centre of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Spectrum gives relative LED channel intensities, keyed by channel
// (B435 blue, G520 green, R663 red).
type Spectrum map[string]float64

// Profile describes the optimum conditions for one crop
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Species     string `json:"species" yaml:"species"`
	Photoperiod Range  `json:"photoperiod" yaml:"photoperiod"` // hours of light per day
	Temperature Range  `json:"temperature" yaml:"temperature"` // °C
	Humidity    Range  `json:"humidity" yaml:"humidity"`       // %
	CO2         Range  `json:"co2" yaml:"co2"`                 // ppm
	PH          Range  `json:"ph" yaml:"ph"`

	HighIntensity Spectrum `json:"high_intensity" yaml:"high_intensity"`
	LowIntensity  Spectrum `json:"low_intensity" yaml:"low_intensity"`
}

var profiles = map[string]Profile{
	"lettuce": {
		Name:          "lettuce",
		Species:       "Lactuca sativa",
		Photoperiod:   Range{12, 16},
		Temperature:   Range{16, 18},
		Humidity:      Range{50, 70},
		CO2:           Range{1200, 1500},
		PH:            Range{6.5, 7.0},
		HighIntensity: Spectrum{"B435": 1.25, "R663": 1.0},
		LowIntensity:  Spectrum{"B435": 1.0, "R663": 1.0, "G520": 0.1},
	},
}

// Lookup returns the profile of a crop by name, case-insensitively
func Lookup(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownCrop, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the known crops
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
