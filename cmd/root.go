package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evcorridor/app"
	"github.com/kilianp07/evcorridor/config"
	"github.com/kilianp07/evcorridor/core/batch"
	"github.com/kilianp07/evcorridor/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "evcorridor",
	Short:        "EV highway charging corridor simulator",
	Long:         "Runs the configured sweep of corridor simulations and exports one result set per run.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration and hands a ready service to fn.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyOverrides(cfg); err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

// overrides lets subcommands patch the loaded configuration.
var overrides []func(*config.Config)

func applyOverrides(cfg *config.Config) error {
	for _, o := range overrides {
		o(cfg)
	}
	return cfg.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		out := cmd.OutOrStdout()
		_, err := svc.RunBatch(ctx, func(o batch.Outcome, done, total int) {
			status := "ok"
			switch {
			case o.Err != nil:
				status = "failed: " + o.Err.Error()
			case o.Result.Incomplete:
				status = "incomplete"
			}
			fmt.Fprintf(out, "[%d/%d] %s %s (%s)\n", done, total, o.Name, status, o.Duration.Round(time.Millisecond))
		})
		return err
	})
}
