package review

import (
	"context"
	"log/slog"

	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/github"
)

// Publisher posts finished reviews as pull request comments. The generated
// text is posted verbatim; delivery-level deduplication is the
// orchestrator's job, so every successful call creates exactly one comment.
type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish posts the review and returns the new comment's ID.
func (p *Publisher) Publish(ctx context.Context, client github.Client, owner, repo string, result *core.ReviewResult) (int64, error) {
	id, err := client.CreateComment(ctx, owner, repo, result.PRNumber, result.Body)
	if err != nil {
		return 0, err
	}

	p.logger.Info("review published",
		"owner", owner,
		"repo", repo,
		"pr", result.PRNumber,
		"head_sha", result.HeadSHA,
		"comment_id", id,
	)
	return id, nil
}
