package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smartsupport/triage-engine/config"
)

// NewWorkerCommand creates the worker command, which runs the dispatch
// engine without the ingestion gateway.
func NewWorkerCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the ticket dispatch worker",
		Long: `Run the queue-consuming dispatch engine: consumes raw tickets from the
intake queue, classifies and routes them to agents, detects ticket storms,
and emits notifications. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			eng, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			return eng.worker.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	return cmd
}
