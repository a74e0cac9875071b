// Package jobs defines background tasks such as code reviews.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/github"
)

// TokenSource hands out installation tokens and evicts ones the host has
// rejected.
type TokenSource interface {
	Token(ctx context.Context, installationID int64) (core.InstallationToken, error)
	Invalidate(installationID int64)
}

// ClientProvider builds an API client bound to an installation token.
type ClientProvider interface {
	ForToken(ctx context.Context, token core.InstallationToken) (github.Client, error)
}

// Generator produces the review text for a diff bundle.
type Generator interface {
	Generate(ctx context.Context, bundle *core.DiffBundle, repoCfg *core.RepoConfig) (*core.ReviewResult, error)
}

// Publisher posts a finished review through the given client.
type Publisher interface {
	Publish(ctx context.Context, client github.Client, owner, repo string, result *core.ReviewResult) (int64, error)
}

// ReviewJob is the review pipeline for one pull request event: installation
// token, changed files, repository overrides, model review, comment.
type ReviewJob struct {
	cfg       *config.Config
	tokens    TokenSource
	clients   ClientProvider
	generator Generator
	publisher Publisher
	retry     RetryConfig
	logger    *slog.Logger
}

// NewReviewJob creates the pipeline behind the orchestrator.
func NewReviewJob(cfg *config.Config, tokens TokenSource, clients ClientProvider, generator Generator, publisher Publisher, logger *slog.Logger) *ReviewJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if tokens == nil {
		panic("token source cannot be nil")
	}
	if clients == nil {
		panic("client provider cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{
		cfg:       cfg,
		tokens:    tokens,
		clients:   clients,
		generator: generator,
		publisher: publisher,
		retry: RetryConfig{
			MaxAttempts:    cfg.Review.MaxAttempts,
			InitialBackoff: cfg.Review.InitialBackoff,
			MaxBackoff:     cfg.Review.MaxBackoff,
		}.withDefaults(),
		logger: logger,
	}
}

// Execute runs the pipeline for one event. The gate closes when a newer head
// SHA supersedes the run: fetching and generation still finish, but the
// review is discarded instead of published. A publish already on the wire
// when the gate closes may still land; that comment stays.
func (j *ReviewJob) Execute(ctx, gate context.Context, event *core.PullRequestEvent) (Outcome, error) {
	if err := j.validateEvent(event); err != nil {
		j.logger.Error("rejecting malformed review event", "error", err)
		return OutcomeFailed, fmt.Errorf("event validation failed: %w", err)
	}

	logger := j.logger.With("repo", event.RepoFullName, "pr", event.PRNumber, "head_sha", event.HeadSHA)
	logger.Info("starting review run", "action", event.Action, "delivery_id", event.DeliveryID)

	var token core.InstallationToken
	err := j.runStage(ctx, "exchange token", func(ctx context.Context) error {
		var err error
		token, err = j.tokens.Token(ctx, event.InstallationID)
		return err
	})
	if err != nil {
		return OutcomeFailed, j.drop(logger, event, "exchange token", err)
	}

	client, err := j.clients.ForToken(ctx, token)
	if err != nil {
		logger.Error("failed to build installation client", "error", err)
		return OutcomeFailed, fmt.Errorf("failed to build installation client: %w", err)
	}

	var bundle *core.DiffBundle
	err = j.runStage(ctx, "fetch changed files", func(ctx context.Context) error {
		files, err := client.ListChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		if err != nil {
			return err
		}
		bundle = &core.DiffBundle{
			RepoFullName: event.RepoFullName,
			PRNumber:     event.PRNumber,
			PRTitle:      event.PRTitle,
			HeadSHA:      event.HeadSHA,
			Files:        files,
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, j.drop(logger, event, "fetch changed files", err)
	}

	if !bundle.HasPatches() {
		logger.Info("no reviewable changes detected, skipping", "files", len(bundle.Files))
		return OutcomeSkipped, nil
	}

	repoCfg := j.loadRepoConfig(ctx, client, event, logger)

	var result *core.ReviewResult
	err = j.runStage(ctx, "generate review", func(ctx context.Context) error {
		var err error
		result, err = j.generator.Generate(ctx, bundle, repoCfg)
		return err
	})
	if errors.Is(err, core.ErrNoReviewableChanges) {
		logger.Info("every changed file is excluded or patchless, skipping")
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeFailed, j.drop(logger, event, "generate review", err)
	}

	// Currency check: a newer head SHA may have closed the gate while the
	// model was working.
	if gate.Err() != nil {
		logger.Info("run superseded before publish, discarding review")
		return OutcomeSuperseded, nil
	}

	// Closing the gate mid-publish aborts the attempt and any retry waits.
	publishCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(gate, cancel)
	defer stop()

	var commentID int64
	err = j.runStage(publishCtx, "publish review", func(ctx context.Context) error {
		var err error
		commentID, err = j.publisher.Publish(ctx, client, event.RepoOwner, event.RepoName, result)
		return err
	})
	if err != nil {
		if gate.Err() != nil {
			logger.Info("publish abandoned, run superseded")
			return OutcomeSuperseded, nil
		}
		return OutcomeFailed, j.drop(logger, event, "publish review", err)
	}

	logger.Info("review run completed", "comment_id", commentID)
	return OutcomePublished, nil
}

// runStage applies the retry policy to one stage, giving every attempt its
// own timeout.
func (j *ReviewJob) runStage(ctx context.Context, op string, fn func(context.Context) error) error {
	return retry(ctx, j.retry, j.logger, op, func(ctx context.Context) error {
		stageCtx, cancel := context.WithTimeout(ctx, j.stageTimeout())
		defer cancel()
		return fn(stageCtx)
	})
}

func (j *ReviewJob) stageTimeout() time.Duration {
	if j.cfg.Review.StageTimeout > 0 {
		return j.cfg.Review.StageTimeout
	}
	return 2 * time.Minute
}

// drop logs a terminal failure. A rejected credential also evicts the cached
// installation token so the next delivery starts from a fresh exchange.
func (j *ReviewJob) drop(logger *slog.Logger, event *core.PullRequestEvent, stage string, err error) error {
	if core.IsAuth(err) {
		j.tokens.Invalidate(event.InstallationID)
	}
	logger.Error("review run dropped",
		"stage", stage,
		"kind", core.KindOf(err).String(),
		"error", err,
	)
	return fmt.Errorf("%s: %w", stage, err)
}

// loadRepoConfig fetches .gander.yml at the head revision. Overrides are an
// enhancement: a missing file is the normal case, and any failure falls back
// to the defaults rather than blocking the review.
func (j *ReviewJob) loadRepoConfig(ctx context.Context, client github.Client, event *core.PullRequestEvent, logger *slog.Logger) *core.RepoConfig {
	cfgCtx, cancel := context.WithTimeout(ctx, j.stageTimeout())
	defer cancel()

	repoCfg, err := client.FetchRepoConfig(cfgCtx, event.RepoOwner, event.RepoName, event.HeadSHA)
	switch {
	case err == nil:
	case errors.Is(err, github.ErrConfigNotFound):
		logger.Debug("no repository review config at head revision")
	default:
		logger.Warn("failed to load repository review config, using defaults", "error", err)
	}
	if repoCfg == nil {
		repoCfg = core.DefaultRepoConfig()
	}
	return repoCfg
}

func (j *ReviewJob) validateEvent(event *core.PullRequestEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" || event.RepoName == "" {
		return fmt.Errorf("event is missing repository identity")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("invalid pull request number: %d", event.PRNumber)
	}
	if event.HeadSHA == "" {
		return fmt.Errorf("event is missing the head SHA")
	}
	if event.InstallationID == 0 {
		return fmt.Errorf("event is missing the installation id")
	}
	return nil
}
