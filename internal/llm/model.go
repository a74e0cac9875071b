// Package llm adapts the language model providers that write reviews
// behind one minimal interface.
package llm

import "context"

// systemPrompt frames every review request, regardless of provider.
const systemPrompt = "You are a GitHub bot that provides constructive reviews for pull requests."

// Model is the surface the review generator needs from a language model.
//
//go:generate mockgen -destination=../../mocks/mock_model.go -package=mocks . Model
type Model interface {
	// Complete sends a prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Provider names the backing provider, for logging and prompt selection.
	Provider() string
}
