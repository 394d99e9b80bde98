package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snow-ghost/fuzzyctl/engine"
	"github.com/snow-ghost/fuzzyctl/pkg/cache"
	"github.com/snow-ghost/fuzzyctl/pkg/config"
	"github.com/snow-ghost/fuzzyctl/pkg/crops"
	"github.com/snow-ghost/fuzzyctl/pkg/loop"
	"github.com/snow-ghost/fuzzyctl/pkg/observability"
	"github.com/snow-ghost/fuzzyctl/pkg/sim"
	"github.com/snow-ghost/fuzzyctl/pkg/system"
	"github.com/snow-ghost/fuzzyctl/pkg/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSimulateCmd(cfg *config.Config) *cobra.Command {
	timeFactor := 1.0

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a simulated greenhouse with the controller",
		Long: `Runs the control loop against a simulated plant-factory greenhouse.
Each cycle reads the plant's sensors, computes every output and applies the
result. Outputs no rule fired for fall back per --policy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulate(ctx, cmd, cfg, timeFactor)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.LoopCycles, "cycles", "n", cfg.LoopCycles, "Cycles to run; 0 runs until interrupted")
	f.Float64Var(&cfg.LoopRateHz, "rate", cfg.LoopRateHz, "Cycles per second; 0 runs unpaced")
	f.StringVar(&cfg.FallbackPolicy, "policy", cfg.FallbackPolicy, "No-rule-fired policy: hold-last or default")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /health on this address")
	f.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Memoize up to this many results; 0 disables")
	f.StringVar(&cfg.Crop, "crop", cfg.Crop, "Crop profile for the greenhouse")
	f.Float64Var(&timeFactor, "time-factor", timeFactor, "Simulated time per cycle, as a multiple of the 5 minute step")
	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, timeFactor float64) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	obs, err := observability.NewManager(observability.Config{
		ServiceName:    "fuzzyctl",
		ServiceVersion: "dev",
		Environment:    "simulation",
		JaegerEndpoint: cfg.JaegerEndpoint,
		LogLevel:       cfg.LogLevel,
		LogFormat:      cfg.LogFormat,
		Registerer:     reg,
	})
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())
	logger := obs.GetLogger()

	sys, err := system.NewLoader(cfg.SystemPath).Load()
	if err != nil {
		return err
	}
	obs = obs.ForSystem(sys.Name)
	eng, err := sys.Build(engine.WithObserver(obs))
	if err != nil {
		return fmt.Errorf("system %q is invalid:\n%w", sys.Name, err)
	}

	profile, err := crops.Lookup(cfg.Crop)
	if err != nil {
		return err
	}
	ghCfg := sim.ConfigFor(profile)
	ghCfg.TimeFactor = timeFactor
	greenhouse, err := sim.New(ghCfg)
	if err != nil {
		return err
	}

	defaults := sys.Fallbacks()
	for name, v := range cfg.Fallbacks {
		defaults[name] = v
	}

	breaker := loop.DefaultBreakerConfig()
	breaker.MaxFailures = uint32(cfg.BreakerMaxFailures)
	breaker.Timeout = cfg.BreakerTimeout

	opts := []loop.Option{loop.WithRecorder(obs), loop.WithTracer(obs.GetTracer())}
	if cfg.CacheSize > 0 {
		rc, err := cache.NewResultCache(eng, &cache.CacheConfig{MaxSize: cfg.CacheSize}, cache.WithHitObserver(obs.RecordCacheMetrics))
		if err != nil {
			return err
		}
		opts = append(opts, loop.WithSessionOptions(engine.WithEvaluator(rc)))
	}

	l, err := loop.New(eng, greenhouse, greenhouse, loop.Config{
		RateHz:    cfg.LoopRateHz,
		MaxCycles: cfg.LoopCycles,
		Policy:    loop.Policy(cfg.FallbackPolicy),
		Defaults:  defaults,
		Breaker:   breaker,
	}, opts...)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return l.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		srv := telemetry.NewServer(cfg.MetricsAddr, reg, func() telemetry.Health {
			h := telemetry.Health{
				Status:  "ok",
				Service: "fuzzyctl",
				Details: map[string]any{
					"system":   sys.Name,
					"cycles":   l.Cycles(),
					"breaker":  l.BreakerState(),
					"in_range": greenhouse.InRange(profile),
				},
			}
			if l.BreakerState() != "closed" {
				h.Status = "degraded"
			}
			return h
		}, logger)
		g.Go(func() error { return srv.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(cmd, l, greenhouse, profile)
	return nil
}

func printSummary(cmd *cobra.Command, l *loop.Loop, g *sim.Greenhouse, profile crops.Profile) {
	out := cmd.OutOrStdout()
	s := g.Snapshot()
	fmt.Fprintf(out, "cycles: %d (simulated %s)\n", l.Cycles(), g.Elapsed())
	fmt.Fprintf(out, "temperature: %.1f °C, co2: %.0f ppm, substrate humidity: %.1f %%, light: %.0f\n",
		s.Temperature, s.CO2, s.SubstrateHumidity, s.Light)

	inRange := g.InRange(profile)
	names := make([]string, 0, len(inRange))
	for name := range inRange {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := "outside"
		if inRange[name] {
			mark = "within"
		}
		fmt.Fprintf(out, "  %-18s %s %s optimum\n", name, mark, profile.Name)
	}
}
