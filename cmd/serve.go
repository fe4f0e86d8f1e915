package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smartsupport/triage-engine/config"
	"github.com/smartsupport/triage-engine/server"
)

// NewServeCommand creates the serve command, which runs the ingestion
// gateway and the dispatch worker in one process.
func NewServeCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion gateway and dispatch worker",
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

			gateway := server.New(cfg.Server.Addr(), eng.queue, eng.breaker,
				eng.dispatch, eng.agents, eng.feed, eng.logger)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return eng.worker.Run(ctx) })
			g.Go(func() error { return gateway.Run(ctx) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	return cmd
}
