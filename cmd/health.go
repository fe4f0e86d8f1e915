package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command, which queries a running
// gateway's health endpoint.
func NewHealthCommand() *cobra.Command {
	var gatewayURL string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(gatewayURL + "/health")
			if err != nil {
				return fmt.Errorf("gateway unreachable: %w", err)
			}
			defer resp.Body.Close()

			var health map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("decode health response: %w", err)
			}

			out, err := json.MarshalIndent(health, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&gatewayURL, "gateway", "http://localhost:8000", "gateway base URL")
	return cmd
}
