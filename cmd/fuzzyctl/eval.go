package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/pkg/config"
	"github.com/spf13/cobra"
)

func newEvalCmd(cfg *config.Config) *cobra.Command {
	var (
		inputs      []string
		activations bool
	)

	cmd := &cobra.Command{
		Use:   "eval --input name=value ...",
		Short: "Run one inference pass and print the outputs",
		Example: `  fuzzyctl eval -i temperature=12 -i co2=1300 -i substrate_humidity=60 -i light_intensity=270
  fuzzyctl eval --system thermostat.yaml --input temperature=13 --activations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseInputs(inputs)
			if err != nil {
				return err
			}
			_, eng, err := loadEngine(cfg)
			if err != nil {
				return err
			}

			s := eng.NewSession()
			if err := s.SetInputs(values); err != nil {
				return err
			}
			if err := s.Compute(); err != nil {
				return err
			}
			res, err := s.Result()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range s.Clamps() {
				fmt.Fprintf(out, "note: %s=%g is outside its universe, clamped to %g\n", c.Variable, c.Requested, c.Applied)
			}
			for _, name := range eng.Consequents() {
				v, err := res.Output(name)
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s = %.4g\n", name, v)
				case errors.Is(err, core.ErrNoRuleFired):
					fmt.Fprintf(out, "%s: no rule fired\n", name)
				default:
					return err
				}
			}
			if activations {
				fmt.Fprintln(out, "activations:")
				for _, a := range res.Activations {
					fmt.Fprintf(out, "  %3d %-24s %.4f\n", a.Index, a.Name, a.Strength)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Input assignment name=value (repeatable)")
	cmd.Flags().BoolVar(&activations, "activations", false, "Print every rule's firing strength")
	return cmd
}

// parseInputs reads name=value pairs
func parseInputs(pairs []string) (map[string]float64, error) {
	values := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: input %q is not name=value", core.ErrInvalidParameter, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: input %s: %v", core.ErrInvalidParameter, name, err)
		}
		values[name] = v
	}
	return values, nil
}
