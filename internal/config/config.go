package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ganderhq/gander/internal/logger"
)

// Config holds the application's configuration values, loaded from an
// optional config.yaml and GANDER_-prefixed environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Review  ReviewConfig  `mapstructure:"review"`
	Logging logger.Config `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener and the review worker pool.
type ServerConfig struct {
	Port       string `mapstructure:"port"`
	MaxWorkers int    `mapstructure:"max_workers"`
	QueueSize  int    `mapstructure:"queue_size"`

	// Theme is the default theme for the terminal dashboard.
	Theme string `mapstructure:"theme"`
}

// GitHubConfig identifies the GitHub App and how it authenticates.
type GitHubConfig struct {
	AppID          int64  `mapstructure:"app_id"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	PrivateKeyPath string `mapstructure:"private_key_path"`

	// APIBaseURL overrides the API endpoint for GitHub Enterprise or tests.
	// Empty means api.github.com.
	APIBaseURL string `mapstructure:"api_base_url"`

	// Token is a personal access token used by the CLI instead of an
	// app installation.
	Token string `mapstructure:"token"`

	// TokenRefreshMargin is how long before expiry a cached installation
	// token is considered stale.
	TokenRefreshMargin time.Duration `mapstructure:"token_refresh_margin"`
}

// LLMConfig selects and configures the review model provider.
type LLMConfig struct {
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	OllamaHost      string `mapstructure:"ollama_host"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
}

// ReviewConfig bounds the prompt and the pipeline's retry behavior.
type ReviewConfig struct {
	MaxPromptTokens int           `mapstructure:"max_prompt_tokens"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialBackoff  time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
	StageTimeout    time.Duration `mapstructure:"stage_timeout"`
}

// LoadConfig reads configuration from an optional config.yaml and from
// environment variables, sets sensible defaults, and applies per-provider
// model defaults. Validation is separate so the CLI can load the same file
// with weaker requirements.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GANDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModelFor(cfg.LLM.Provider)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_workers", 5)
	v.SetDefault("server.queue_size", 100)
	v.SetDefault("server.theme", "")

	v.SetDefault("github.app_id", 0)
	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.private_key_path", "keys/gander-app.private-key.pem")
	v.SetDefault("github.api_base_url", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.token_refresh_margin", time.Minute)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.ollama_host", "http://localhost:11434")
	v.SetDefault("llm.max_output_tokens", 2048)

	v.SetDefault("review.max_prompt_tokens", 12000)
	v.SetDefault("review.max_attempts", 3)
	v.SetDefault("review.initial_backoff", time.Second)
	v.SetDefault("review.max_backoff", 30*time.Second)
	v.SetDefault("review.stage_timeout", 2*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// defaultModelFor returns the model used when none is configured.
func defaultModelFor(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "ollama":
		return "gemma3:latest"
	default:
		return "gpt-4o-mini"
	}
}

// Validate checks the fields the webhook service cannot run without.
func (c *Config) Validate() error {
	if c.GitHub.AppID == 0 {
		return fmt.Errorf("github.app_id must be set")
	}
	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("github.webhook_secret must be set")
	}
	if c.GitHub.PrivateKeyPath == "" {
		return fmt.Errorf("github.private_key_path must be set")
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if c.Review.MaxAttempts < 1 {
		return fmt.Errorf("review.max_attempts must be at least 1, got %d", c.Review.MaxAttempts)
	}
	return nil
}

// ValidateForCLI checks the weaker requirements of the PAT-based CLI, which
// never verifies webhooks or mints installation tokens.
func (c *Config) ValidateForCLI() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github.token must be set (GANDER_GITHUB_TOKEN)")
	}
	return c.validateLLM()
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key must be set for the openai provider")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("llm.gemini_api_key must be set for the gemini provider")
		}
	case "ollama":
		if c.LLM.OllamaHost == "" {
			return fmt.Errorf("llm.ollama_host must be set for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	return nil
}
