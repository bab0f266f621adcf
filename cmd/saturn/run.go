package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/governor"
	"mercator-hq/saturn/pkg/schedule"
	"mercator-hq/saturn/pkg/tier"
)

var runFlags struct {
	watch bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the governor daemon",
	Long: `Run the governor daemon: the periodic cap check, the rotation
schedule runner, and optionally a configuration file watcher.

The daemon checks spend against the cap every governor.check_interval
and rotates fallback credentials when the cap is exceeded, subject to
the rotation cooldown.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload configuration on file change")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.Default().With("component", "daemon")

	// Ensure every provider holding fallback credentials has a routine
	// rotation schedule, then start the runner.
	if a.cfg.Schedule.Enabled {
		if err := ensureSchedules(ctx, a); err != nil {
			return err
		}
		runner := schedule.NewRunner(a.schedules, a.governor)
		if err := runner.Start(ctx); err != nil {
			return err
		}
		defer runner.Stop()
	}

	// Periodic cap check.
	if a.cfg.Governor.CheckInterval > 0 {
		go func() {
			ticker := time.NewTicker(a.cfg.Governor.CheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					result, err := a.governor.CheckAndRotate(ctx)
					if err != nil {
						logger.Error("cap check failed", "error", err)
						continue
					}
					if result.Triggered && !result.Suppressed {
						logger.Warn("cap exceeded, fallback rotation executed",
							"percentage", result.Percentage,
							"rotated", len(result.Rotation.Rotated),
							"failed", len(result.Rotation.Failures),
						)
					}
				}
			}
		}()
	}

	// Configuration watcher. A reload re-applies logging, tier policy,
	// and governor settings; storage wiring requires a restart. Nothing
	// to watch when the process runs on defaults.
	if _, statErr := os.Stat(cfgFile); runFlags.watch && statErr == nil {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			return err
		}
		go func() {
			_ = watcher.Watch(ctx, func(cfg *config.Config) {
				setupLogging(cfg)
				a.governor.Reconfigure(tier.NewPolicy(cfg.Tier), governor.Config{
					Cooldown: cfg.Governor.Cooldown,
				})
				logger.Info("configuration reloaded",
					"level", cfg.Logging.Level,
					"cooldown", cfg.Governor.Cooldown.String(),
				)
			})
		}()
		defer watcher.Stop()
	}

	logger.Info("saturn daemon started",
		"backend", a.cfg.Storage.Backend,
		"check_interval", a.cfg.Governor.CheckInterval.String(),
		"cooldown", a.cfg.Governor.Cooldown.String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	fmt.Printf("Received %s, shutting down\n", sig)
	return nil
}

// ensureSchedules creates a default rotation schedule for every
// (provider, tier) group present in the credential pool.
func ensureSchedules(ctx context.Context, a *app) error {
	creds, err := a.pool.List(ctx, "", "")
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, cred := range creds {
		key := cred.Provider + "/" + cred.Tier.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, _, err := a.schedules.GetOrCreate(ctx, cred.Provider, cred.Tier, a.cfg.Schedule.DefaultCron); err != nil {
			return err
		}
	}
	return nil
}
