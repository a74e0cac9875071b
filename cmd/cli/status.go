package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/internal/jobs"
)

var (
	outputJSON bool
	serverURL  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the review pipeline status of a running Gander server",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snapshot, err := fetchStatus(ctx, serverURL)
		if err != nil {
			return fmt.Errorf("failed to fetch server status: %w\n\nTip: is the Gander server running at %s?", err, serverURL)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(snapshot)
		}

		titleColor.Printf("Review pipeline on %s\n\n", serverURL)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ACCEPTED\tDUPLICATES\tSUPERSEDED\tPUBLISHED\tSKIPPED\tFAILED\tIN FLIGHT")
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			snapshot.Accepted,
			snapshot.Duplicates,
			snapshot.Superseded,
			snapshot.Published,
			snapshot.Skipped,
			snapshot.Failed,
			snapshot.InFlight,
		)
		if err := w.Flush(); err != nil {
			return err
		}

		if len(snapshot.ActiveRuns) == 0 {
			dimColor.Println("\nNo review runs in flight.")
			return nil
		}

		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "REPOSITORY\tPR\tHEAD SHA\tSTARTED")
		for _, run := range snapshot.ActiveRuns {
			fmt.Fprintf(w, "%s\t#%d\t%s\t%s\n",
				run.Repo,
				run.PRNumber,
				truncateSHA(run.HeadSHA),
				run.StartedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the Gander server")
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func fetchStatus(ctx context.Context, baseURL string) (*jobs.StatusSnapshot, error) {
	url := strings.TrimSuffix(baseURL, "/") + "/api/v1/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var snapshot jobs.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &snapshot, nil
}
