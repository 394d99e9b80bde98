package main

import (
	"errors"
	"fmt"

	"github.com/snow-ghost/fuzzyctl/pkg/config"
	"github.com/snow-ghost/fuzzyctl/testkit"
	"github.com/spf13/cobra"
)

var errCasesFailed = errors.New("regression cases failed")

func newTestCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the regression cases declared in the system file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, eng, err := loadEngine(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sys.Cases) == 0 {
				fmt.Fprintf(out, "system %s declares no cases\n", sys.Name)
				return nil
			}

			metrics, pass, failures := testkit.NewRunner().Run(eng, sys.Cases)
			for _, f := range failures {
				fmt.Fprintf(out, "FAIL %s\n", f)
			}
			fmt.Fprintf(out, "%d/%d cases passed\n", int(metrics["cases_passed"]), int(metrics["cases_total"]))
			if !pass {
				return errCasesFailed
			}
			return nil
		},
	}
}
