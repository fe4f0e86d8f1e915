package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

// sampleTickets is a mixed workload covering all three categories with a
// spread of urgencies.
var sampleTickets = []string{
	"My invoice was charged twice!",
	"Server is completely down ASAP!",
	"Need legal advice on our contract",
	"Cannot login to my account",
	"Billing portal is broken",
	"Database keeps crashing",
	"Urgent legal review needed",
	"Payment failed three times",
	"Server unreachable since morning",
	"Need refund for duplicate charge",
	"App crashes on every login",
	"Contract terms need review",
	"Server down nothing works",
	"Invoice amount is wrong",
	"Legal help needed urgently",
}

// stormTickets is a burst of near-identical tickets that trips both the
// volume gate and the similarity confirmation.
var stormTickets = []string{
	"Server is completely down",
	"Server is totally down",
	"The server is down and not working",
	"Server down nothing works",
	"Everything is down server unreachable",
	"Server is not responding at all",
	"Server has been down since an hour",
	"Our server is down please fix",
	"Server completely unreachable",
	"Nothing is working server is down",
	"Server down ASAP please help",
}

// NewSimulateCommand creates the simulate command, which fires a batch of
// sample tickets at a running gateway concurrently.
func NewSimulateCommand() *cobra.Command {
	var gatewayURL string
	var storm bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post sample tickets to a running gateway",
		Long: `Post a batch of sample tickets concurrently to exercise the pipeline.
With --storm, posts a burst of near-identical tickets to trigger storm
consolidation instead of the mixed workload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := sampleTickets
			if storm {
				texts = stormTickets
			}
			return postTickets(cmd, gatewayURL, texts)
		},
	}

	cmd.Flags().StringVar(&gatewayURL, "gateway", "http://localhost:8000", "gateway base URL")
	cmd.Flags().BoolVar(&storm, "storm", false, "send the storm burst instead of the mixed workload")
	return cmd
}

func postTickets(cmd *cobra.Command, gatewayURL string, texts []string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	url := gatewayURL + "/ticket"

	cmd.Printf("Posting %d concurrent tickets to %s\n", len(texts), url)

	var wg sync.WaitGroup
	results := make([]string, len(texts))

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]string{"text": text})
			resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
			if err != nil {
				results[i] = fmt.Sprintf("ticket %02d -> error: %v", i+1, err)
				return
			}
			defer resp.Body.Close()
			results[i] = fmt.Sprintf("ticket %02d -> HTTP %d | %.40s", i+1, resp.StatusCode, text)
		}(i, text)
	}
	wg.Wait()

	for _, line := range results {
		cmd.Println(line)
	}
	return nil
}
