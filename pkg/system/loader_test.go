package system

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thermostatYAML = `
name: thermostat
antecedents:
  - name: temperature
    universe: {min: 0, max: 40, step: 1}
    terms:
      - {name: low, triangular: [8, 13, 18]}
      - {name: high, gaussian: {mean: 30, sigma: 4}}
consequents:
  - name: heating
    universe: {min: 0, max: 100, step: 1}
    defuzzify: bisector
    fallback: 5
    terms:
      - {name: high, triangular: [70, 90, 100]}
      - {name: off, trapezoidal: [0, 0, 10, 20]}
rules:
  - name: cold
    if: temperature is low
    then: [{output: heating, term: high}]
  - name: not-cold
    if: {all: ["temperature is not low", {any: ["temperature is high", {not: "temperature is low"}]}]}
    then: [{output: heating, term: off, weight: 0.5}]
cases:
  - name: cold
    inputs: {temperature: 13}
    expect:
      heating: {value: 87}
`

func TestLoadFromBytes(t *testing.T) {
	sys, err := LoadFromBytes([]byte(thermostatYAML))
	require.NoError(t, err)

	assert.Equal(t, "thermostat", sys.Name)
	assert.Equal(t, 2, sys.GetTotalRules())
	assert.Equal(t, map[string]float64{"heating": 5}, sys.Fallbacks())
	require.NotNil(t, sys.GetConsequent("heating"))
	assert.Nil(t, sys.GetConsequent("temperature"))
	assert.Equal(t, []float64{8, 13, 18}, sys.GetAntecedent("temperature").Terms[0].Triangular)

	cond, err := sys.Rules[1].If.Compile()
	require.NoError(t, err)
	assert.Equal(t, "(not temperature is low and (temperature is high or not temperature is low))", cond.String())

	eng, err := sys.Build()
	require.NoError(t, err)
	v, ok := eng.Variable("heating")
	require.True(t, ok)
	assert.Equal(t, core.Bisector, v.Defuzzification())

	res, err := eng.Evaluate(map[string]float64{"temperature": 13})
	require.NoError(t, err)
	heating, err := res.Output("heating")
	require.NoError(t, err)
	assert.Equal(t, 87.0, heating)

	require.Len(t, sys.Cases, 1)
	require.NotNil(t, sys.Cases[0].Expect["heating"].Value)
	assert.Equal(t, 87.0, *sys.Cases[0].Expect["heating"].Value)
}

func TestDefaultSystem(t *testing.T) {
	sys, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "lettuce", sys.Name)
	assert.Len(t, sys.Rules, 20)

	eng, err := sys.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"temperature", "co2", "substrate_humidity", "light_intensity"}, eng.Antecedents())
	assert.Equal(t, []string{"light_adjust", "heating", "ventilation", "co2_injector", "irrigation"}, eng.Consequents())

	s := eng.NewSession()
	require.NoError(t, s.SetInputs(map[string]float64{
		"temperature":        12,
		"co2":                1300,
		"substrate_humidity": 60,
		"light_intensity":    270,
	}))
	require.NoError(t, s.Compute())

	heating, err := s.Output("heating")
	require.NoError(t, err)
	assert.Greater(t, heating, 35.0)
	assert.Less(t, heating, 65.0)

	for _, name := range []string{"co2_injector", "irrigation", "light_adjust"} {
		_, err := s.Output(name)
		assert.ErrorIs(t, err, core.ErrNoRuleFired, name)
	}
}

func TestDefaultSystemCases(t *testing.T) {
	sys, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, sys.Cases)

	eng, err := sys.Build()
	require.NoError(t, err)

	metrics, pass, failures := testkit.NewRunner().Run(eng, sys.Cases)
	assert.True(t, pass, "%v", failures)
	assert.Equal(t, float64(len(sys.Cases)), metrics["cases_passed"])
}

func TestSaveAndLoad(t *testing.T) {
	orig, err := LoadFromBytes([]byte(thermostatYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "thermostat.yaml")
	loader := NewLoader(path)
	require.NoError(t, loader.Save(orig))

	loaded, err := loader.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(orig, loaded); diff != "" {
		t.Errorf("system changed after save/load (-want +got):\n%s", diff)
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermostat.yaml")
	sys, err := LoadFromBytes([]byte(thermostatYAML))
	require.NoError(t, err)
	require.NoError(t, NewLoader(path).Save(sys))

	t.Setenv(EnvSystem, path)
	loaded, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "thermostat", loaded.Name)

	t.Setenv(EnvSystem, "")
	def, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "lettuce", def.Name)

	_, err = NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"two operators": `
name: x
rules:
  - if: {all: ["a is b"], any: ["c is d"]}
    then: [{output: y, term: z}]
`,
		"list condition": `
name: x
rules:
  - if: ["a is b"]
    then: [{output: y, term: z}]
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(doc))
			require.Error(t, err)
		})
	}

	_, err := LoadFromBytes([]byte("antecedents: []\n"))
	require.Error(t, err)
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "malformed condition",
			doc: `
name: x
antecedents:
  - {name: a, universe: {min: 0, max: 1, step: 0.1}, terms: [{name: b, triangular: [0, 0.5, 1]}]}
consequents:
  - {name: y, universe: {min: 0, max: 1, step: 0.1}, terms: [{name: z, triangular: [0, 0.5, 1]}]}
rules:
  - if: "a equals b"
    then: [{output: y, term: z}]
`,
			want: core.ErrInvalidParameter,
		},
		{
			name: "two shapes",
			doc: `
name: x
antecedents:
  - name: a
    universe: {min: 0, max: 1, step: 0.1}
    terms: [{name: b, triangular: [0, 0.5, 1], gaussian: {mean: 0.5, sigma: 0.1}}]
`,
			want: core.ErrInvalidParameter,
		},
		{
			name: "triangular arity",
			doc: `
name: x
antecedents:
  - {name: a, universe: {min: 0, max: 1, step: 0.1}, terms: [{name: b, triangular: [0, 1]}]}
`,
			want: core.ErrInvalidParameter,
		},
		{
			name: "bad universe",
			doc: `
name: x
consequents:
  - {name: y, universe: {min: 1, max: 0, step: 0.1}, terms: []}
`,
			want: core.ErrInvalidParameter,
		},
		{
			name: "unknown output",
			doc: `
name: x
antecedents:
  - {name: a, universe: {min: 0, max: 1, step: 0.1}, terms: [{name: b, triangular: [0, 0.5, 1]}]}
rules:
  - if: "a is b"
    then: [{output: y, term: z}]
`,
			want: core.ErrUnknownVariableReference,
		},
		{
			name: "unknown method",
			doc: `
name: x
consequents:
  - {name: y, universe: {min: 0, max: 1, step: 0.1}, defuzzify: median, terms: []}
`,
			want: core.ErrInvalidParameter,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sys, err := LoadFromBytes([]byte(tc.doc))
			require.NoError(t, err)
			eng, err := sys.Build()
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, eng)
		})
	}
}
