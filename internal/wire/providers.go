package wire

import (
	"fmt"
	"log/slog"

	"github.com/google/wire"

	"github.com/ganderhq/gander/internal/app"
	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/github"
	"github.com/ganderhq/gander/internal/jobs"
	"github.com/ganderhq/gander/internal/llm"
	"github.com/ganderhq/gander/internal/logger"
	"github.com/ganderhq/gander/internal/review"
	"github.com/ganderhq/gander/internal/server"
)

// AppSet wires every component of the review service.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	jobs.NewOrchestrator,
	jobs.NewReviewJob,
	llm.NewModel,
	llm.NewPromptManager,
	llm.NewTokenEstimator,
	review.NewPublisher,
	github.NewAppsExchanger,
	github.NewClientFactory,
	provideConfig,
	provideGenerator,
	provideTokenCache,
	provideDispatcher,
	providePipeline,
	provideTokenSource,
	provideClientProvider,
	provideJobGenerator,
	provideJobPublisher,
	provideLoggerConfig,
	provideSlogLogger,
)

func provideConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func provideGenerator(model llm.Model, prompts *llm.PromptManager, estimator *llm.TokenEstimator, cfg *config.Config, logger *slog.Logger) *review.Generator {
	return review.NewGenerator(model, prompts, estimator, cfg.Review.MaxPromptTokens, logger)
}

func provideTokenCache(exchanger github.TokenExchanger, cfg *config.Config, logger *slog.Logger) *github.TokenCache {
	return github.NewTokenCache(exchanger, cfg.GitHub.TokenRefreshMargin, logger)
}

func provideDispatcher(orch *jobs.Orchestrator, cfg *config.Config, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(orch, cfg.Server.MaxWorkers, cfg.Server.QueueSize, logger)
}

func providePipeline(job *jobs.ReviewJob) jobs.Pipeline {
	return job
}

func provideTokenSource(cache *github.TokenCache) jobs.TokenSource {
	return cache
}

func provideClientProvider(factory *github.ClientFactory) jobs.ClientProvider {
	return factory
}

func provideJobGenerator(generator *review.Generator) jobs.Generator {
	return generator
}

func provideJobPublisher(publisher *review.Publisher) jobs.Publisher {
	return publisher
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideSlogLogger(loggerConfig logger.Config) *slog.Logger {
	return logger.NewLogger(loggerConfig, nil)
}
