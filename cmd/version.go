package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smartsupport/triage-engine/pkg/buildinfo"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("triage " + buildinfo.String())
		},
	}
}
