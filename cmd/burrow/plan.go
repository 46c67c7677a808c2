package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/bootstrap"
	"github.com/cuemby/burrow/pkg/fetch"
	"github.com/cuemby/burrow/pkg/systemd"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what up would change without applying anything",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	addr, err := advertiseAddr(cfg)
	if err != nil {
		return fmt.Errorf("failed to discover advertise address: %w", err)
	}

	host := bootstrap.NewHost(cfg, addr, fetch.NewFetcher(cfg.InstallDir), systemd.NewSystemctl())
	runner := bootstrap.NewRunner(host, bootstrap.Steps(host))

	pending := 0
	for _, entry := range runner.Plan(cmd.Context()) {
		switch {
		case entry.Err != nil:
			fmt.Printf("? %-28s check failed: %v\n", entry.Name, entry.Err)
			pending++
		case entry.Status == bootstrap.StatusSatisfied:
			fmt.Printf("  %-28s up to date\n", entry.Name)
		default:
			fmt.Printf("~ %-28s would apply\n", entry.Name)
			pending++
		}
	}

	fmt.Println()
	if pending == 0 {
		fmt.Println("Host is up to date; up would change nothing.")
	} else {
		fmt.Printf("%d step(s) would apply changes.\n", pending)
	}
	return nil
}
