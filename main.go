// Package main provides the triage CLI entry point.
// triage runs the support-ticket dispatch engine: an ingestion gateway, a
// queue-consuming worker with storm detection and a classification circuit
// breaker, and tooling to exercise a running instance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartsupport/triage-engine/cmd"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Support-ticket triage and dispatch engine",
	Long: `triage classifies incoming support tickets, scores their urgency, routes
them to capacity- and skill-constrained agents, suppresses duplicate
processing, and consolidates ticket storms into master incidents.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.NewServeCommand())
	rootCmd.AddCommand(cmd.NewWorkerCommand())
	rootCmd.AddCommand(cmd.NewHealthCommand())
	rootCmd.AddCommand(cmd.NewSimulateCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
