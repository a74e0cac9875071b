package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/ganderhq/gander/internal/config"
)

// NewModel builds the review model for the configured provider.
func NewModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Model, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return NewOpenAIModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.MaxOutputTokens, logger), nil

	case "gemini":
		model, err := gemini.New(ctx,
			gemini.WithModel(cfg.LLM.Model),
			gemini.WithAPIKey(cfg.LLM.GeminiAPIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return &goframeModel{model: model, provider: "gemini"}, nil

	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.LLM.OllamaHost),
			ollama.WithModel(cfg.LLM.Model),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}
		return &goframeModel{model: model, provider: "ollama"}, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

// goframeModel adapts a goframe llms.Model. Those providers take a single
// prompt string, so the system framing is prepended to the user prompt.
type goframeModel struct {
	model    llms.Model
	provider string
}

func (g *goframeModel) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := g.model.Call(ctx, systemPrompt+"\n\n"+prompt)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", g.provider, err)
	}
	return out, nil
}

func (g *goframeModel) Provider() string { return g.provider }

// Local inference can be slow, so the ollama client gets generous timeouts.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}
