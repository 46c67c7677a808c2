package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/state"
	"github.com/cuemby/burrow/pkg/systemd"
	"github.com/cuemby/burrow/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service and agent health on this host",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("data-dir", "", "Override burrow's data directory")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc := systemd.NewSystemctl()

	agents := []types.Agent{cfg.CoordinatorAgent(), cfg.OrchestratorAgent()}
	allUp := true
	for _, agent := range agents {
		active := svc.IsActive(ctx, agent.UnitName)
		result := health.ForAgent(agent).Check(ctx)

		unitState := "inactive"
		if active {
			unitState = "active"
		}
		apiState := "unreachable"
		if result.Healthy {
			apiState = "healthy"
		}
		if !active || !result.Healthy {
			allUp = false
		}

		fmt.Printf("%-16s unit=%-8s api=%-11s %s\n", agent.UnitName, unitState, apiState, result.Message)

		// Surface the service manager's own diagnosis for a down unit.
		if !active {
			if text := svc.Status(ctx, agent.UnitName); text != "" {
				fmt.Printf("  %s\n", strings.ReplaceAll(text, "\n", "\n  "))
			}
		}
	}

	store, err := state.Open(cfg.DataDir)
	if err != nil {
		// Status should still report service health on a host where
		// bootstrap never ran.
		fmt.Printf("\nNo run history available: %v\n", err)
	} else {
		defer store.Close()
		if run, err := store.LatestRun(); err == nil && run != nil {
			outcome := "failed"
			if run.Success {
				outcome = "succeeded"
			}
			fmt.Printf("\nLast run %s %s at %s (addr %s, %d steps)\n",
				run.ID, outcome, run.FinishedAt.Format("2006-01-02 15:04:05 MST"),
				run.AdvertiseAddr, len(run.Steps))
		} else {
			fmt.Println("\nNo bootstrap run recorded yet.")
		}
	}

	if !allUp {
		return fmt.Errorf("one or more services are not healthy")
	}
	return nil
}
