package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/github"
)

var (
	verifySecret    string
	verifySignature string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [payload-file]",
	Short: "Check a webhook payload against its signature header",
	Long: `Check a stored webhook payload against the X-Hub-Signature-256 header
GitHub sent with it.

Useful when deliveries bounce with 401: save the payload body from the
app's "Advanced" delivery log and compare signatures to find out whether
the configured webhook secret matches the one GitHub signs with.

Examples:
  gander-cli verify --signature sha256=abc123... delivery.json
  gander-cli verify --secret my-secret --signature sha256=abc123... delivery.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	verifyCmd.Flags().StringVar(&verifySecret, "secret", "", "Webhook secret (defaults to github.webhook_secret from config)")
	verifyCmd.Flags().StringVarP(&verifySignature, "signature", "s", "", "Signature header value, e.g. sha256=...")
	_ = verifyCmd.MarkFlagRequired("signature")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload file: %w", err)
	}

	secret := verifySecret
	if secret == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		secret = cfg.GitHub.WebhookSecret
	}
	if secret == "" {
		return fmt.Errorf("no webhook secret: pass --secret or set GANDER_GITHUB_WEBHOOK_SECRET")
	}

	if github.VerifySignature([]byte(secret), payload, verifySignature) {
		successColor.Println("✓ Signature is valid.")
		return nil
	}

	errorColor.Println("Signature mismatch.")
	dimColor.Printf("   expected: %s\n", github.Sign([]byte(secret), payload))
	dimColor.Printf("   received: %s\n", verifySignature)
	return fmt.Errorf("signature verification failed")
}
