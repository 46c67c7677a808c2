package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/bootstrap"
	"github.com/cuemby/burrow/pkg/config"
	"github.com/cuemby/burrow/pkg/fetch"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/network"
	"github.com/cuemby/burrow/pkg/state"
	"github.com/cuemby/burrow/pkg/systemd"
	"github.com/cuemby/burrow/pkg/types"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bootstrap this host",
	Long: `Bring the host to desired state: install the daemon binaries,
render their configurations, register and start their services, and
configure the registry credential helper.

Re-running up against an already-bootstrapped host applies no changes.`,
	RunE: runUp,
}

func init() {
	upCmd.Flags().String("data-dir", "", "Override burrow's data directory")
	upCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	upCmd.Flags().Duration("timeout", 15*time.Minute, "Overall run deadline")

	rootCmd.AddCommand(upCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// advertiseAddr resolves the host address once per run: config override
// first, interface discovery otherwise.
func advertiseAddr(cfg *config.Config) (string, error) {
	if cfg.AdvertiseAddr != "" {
		return cfg.AdvertiseAddr, nil
	}
	return network.DiscoverAdvertiseAddr()
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRegistry(); err != nil {
		return err
	}

	addr, err := advertiseAddr(cfg)
	if err != nil {
		return fmt.Errorf("failed to discover advertise address: %w", err)
	}

	store, err := state.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if metricsAddr, _ := cmd.Flags().GetString("metrics-addr"); metricsAddr != "" {
		srv, errCh := metrics.Serve(metricsAddr)
		defer srv.Close()
		go func() {
			if err := <-errCh; err != nil {
				log.Errorf("metrics server error", err)
			}
		}()
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Bootstrapping host...")
	fmt.Printf("  Advertise Address: %s\n", addr)
	fmt.Printf("  Orchestrator: nomad %s\n", cfg.Orchestrator.Version)
	fmt.Printf("  Coordinator: consul %s\n", cfg.Coordinator.Version)
	fmt.Println()

	host := bootstrap.NewHost(cfg, addr, fetch.NewFetcher(cfg.InstallDir), systemd.NewSystemctl())
	runner := bootstrap.NewRunner(host, bootstrap.Steps(host))

	record, runErr := runner.Run(ctx)
	if err := store.RecordRun(record); err != nil {
		log.Errorf("failed to persist run record", err)
	}

	printOutcomes(record)

	if runErr != nil {
		return runErr
	}

	fmt.Println()
	fmt.Println("✓ Bootstrap complete")
	fmt.Printf("  Orchestrator UI: http://%s:%d\n", addr, cfg.Orchestrator.HTTPPort)
	fmt.Printf("  Coordinator UI:  http://%s:%d\n", addr, cfg.Coordinator.HTTPPort)
	return nil
}

func printOutcomes(record *types.RunRecord) {
	for _, step := range record.Steps {
		switch step.Status {
		case types.StepStatusApplied:
			fmt.Printf("✓ %s (applied)\n", step.Name)
		case types.StepStatusSatisfied:
			fmt.Printf("✓ %s (unchanged)\n", step.Name)
		case types.StepStatusFailed:
			fmt.Printf("✗ %s: %s\n", step.Name, step.Error)
		case types.StepStatusSkipped:
			fmt.Printf("- %s (skipped)\n", step.Name)
		}
	}
}
