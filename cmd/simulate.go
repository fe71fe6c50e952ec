package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evcorridor/app"
	"github.com/kilianp07/evcorridor/config"
)

var simOpts struct {
	serve bool
	tps   int
	cars  int
	seed  int64
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation, optionally serving live snapshots",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.BoolVar(&simOpts.serve, "serve", false, "serve the snapshot API while running")
	f.IntVar(&simOpts.tps, "tps", 0, "ticks per second, 0 runs unthrottled")
	f.IntVar(&simOpts.cars, "cars", 0, "number of cars, overrides the configuration")
	f.Int64Var(&simOpts.seed, "seed", 0, "random seed, overrides the configuration")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	overrides = append(overrides, func(c *config.Config) {
		if simOpts.cars > 0 {
			c.Simulation.CarCount = simOpts.cars
		}
		if cmd.Flags().Changed("seed") {
			c.Simulation.Seed = simOpts.seed
		}
	})
	return withService(func(ctx context.Context, svc *app.Service) error {
		rep, err := svc.Simulate(ctx, app.SimulateOptions{Serve: simOpts.serve, TPS: simOpts.tps})
		if err != nil {
			return err
		}
		r := rep.Result
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d ticks, %.0f s simulated\n", r.Name, r.Ticks, r.ElapsedS)
		fmt.Fprintf(out, "injected %d, not injected %d, reached %d, depleted %d\n", r.Injected, r.NotInjected, r.Reached, r.Depleted)
		if r.Incomplete {
			fmt.Fprintln(out, "stopped at the tick limit")
		}
		for _, s := range rep.States {
			fmt.Fprintf(out, "  %-22s mean %8.0f s  median %8.0f s\n", s.State, s.MeanS, s.MedianS)
		}
		return nil
	})
}
