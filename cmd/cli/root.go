package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/internal/config"
)

var githubToken string

var rootCmd = &cobra.Command{
	Use:   "gander-cli",
	Short: "gander-cli is the command-line interface for Gander.",
	Long: `A CLI for working with the Gander review service: run one-shot reviews
against a pull request with a personal access token, inspect a running
server's pipeline, and debug webhook deliveries.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub personal access token (overrides GANDER_GITHUB_TOKEN)")
}

// loadCLIConfig loads the shared configuration and applies the
// --github-token flag on top. Validation is left to each command since
// they need different subsets of the config.
func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if githubToken != "" {
		cfg.GitHub.Token = githubToken
	}
	return cfg, nil
}
