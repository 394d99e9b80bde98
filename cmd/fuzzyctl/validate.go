package main

import (
	"fmt"
	"strings"

	"github.com/snow-ghost/fuzzyctl/core"
	"github.com/snow-ghost/fuzzyctl/pkg/config"
	"github.com/spf13/cobra"
)

func newValidateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a system file and describe it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := loadEngine(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "system %s: %d antecedents, %d consequents, %d rules\n",
				eng.Name(), len(eng.Antecedents()), len(eng.Consequents()), len(eng.Rules()))
			for _, name := range append(eng.Antecedents(), eng.Consequents()...) {
				v, _ := eng.Variable(name)
				line := fmt.Sprintf("  %-11s %-20s %s [%s]", v.Role(), v.Name(), v.Universe(), strings.Join(v.TermNames(), " "))
				if v.Role() == core.Consequent {
					line += " " + string(v.Defuzzification())
				}
				fmt.Fprintln(out, line)
			}
			if unused := unusedInputs(eng.Antecedents(), eng.Required()); len(unused) > 0 {
				fmt.Fprintf(out, "  warning: no rule reads %s\n", strings.Join(unused, ", "))
			}
			return nil
		},
	}
}

func unusedInputs(all, required []string) []string {
	used := make(map[string]bool, len(required))
	for _, name := range required {
		used[name] = true
	}
	var out []string
	for _, name := range all {
		if !used[name] {
			out = append(out, name)
		}
	}
	return out
}
