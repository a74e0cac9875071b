// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"

	"github.com/ganderhq/gander/internal/app"
	"github.com/ganderhq/gander/internal/github"
	"github.com/ganderhq/gander/internal/jobs"
	"github.com/ganderhq/gander/internal/llm"
	"github.com/ganderhq/gander/internal/review"
	"github.com/ganderhq/gander/internal/server"
)

// InitializeApp builds the application with all its dependencies.
func InitializeApp(ctx context.Context) (*app.App, error) {
	cfg, err := provideConfig()
	if err != nil {
		return nil, err
	}

	loggerConfig := provideLoggerConfig(cfg)
	slogLogger := provideSlogLogger(loggerConfig)

	model, err := llm.NewModel(ctx, cfg, slogLogger)
	if err != nil {
		return nil, err
	}
	promptManager, err := llm.NewPromptManager()
	if err != nil {
		return nil, err
	}
	estimator := llm.NewTokenEstimator(slogLogger)
	generator := provideGenerator(model, promptManager, estimator, cfg, slogLogger)
	publisher := review.NewPublisher(slogLogger)

	exchanger, err := github.NewAppsExchanger(cfg, slogLogger)
	if err != nil {
		return nil, err
	}
	tokenCache := provideTokenCache(exchanger, cfg, slogLogger)
	clientFactory := github.NewClientFactory(cfg, slogLogger)

	reviewJob := jobs.NewReviewJob(
		cfg,
		provideTokenSource(tokenCache),
		provideClientProvider(clientFactory),
		provideJobGenerator(generator),
		provideJobPublisher(publisher),
		slogLogger,
	)
	orchestrator := jobs.NewOrchestrator(providePipeline(reviewJob), slogLogger)
	dispatcher := provideDispatcher(orchestrator, cfg, slogLogger)

	srv := server.NewServer(ctx, cfg, orchestrator, dispatcher, slogLogger)
	application := app.NewApp(ctx, cfg, srv, dispatcher, slogLogger)
	return application, nil
}
