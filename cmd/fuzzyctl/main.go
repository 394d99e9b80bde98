// Command fuzzyctl validates, evaluates, tests and simulates fuzzy control
// systems.
package main

import (
	"fmt"
	"os"

	"github.com/snow-ghost/fuzzyctl/engine"
	"github.com/snow-ghost/fuzzyctl/pkg/config"
	"github.com/snow-ghost/fuzzyctl/pkg/system"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:          "fuzzyctl",
		Short:        "Mamdani fuzzy controller toolkit",
		Long:         `Validate fuzzy system files, evaluate them for one set of inputs, or run them against a simulated greenhouse.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&cfg.SystemPath, "system", "s", cfg.SystemPath, "System file (default: embedded lettuce controller, or $FUZZY_SYSTEM)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")

	root.AddCommand(newValidateCmd(cfg))
	root.AddCommand(newEvalCmd(cfg))
	root.AddCommand(newSimulateCmd(cfg))
	root.AddCommand(newTestCmd(cfg))
	return root
}

// loadEngine reads the configured system and builds it
func loadEngine(cfg *config.Config, opts ...engine.Option) (*system.System, *engine.Engine, error) {
	sys, err := system.NewLoader(cfg.SystemPath).Load()
	if err != nil {
		return nil, nil, err
	}
	eng, err := sys.Build(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("system %q is invalid:\n%w", sys.Name, err)
	}
	return sys, eng, nil
}
