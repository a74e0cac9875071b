// Package github wraps the GitHub REST API for the review pipeline: webhook
// signature verification, installation token management, and the pull
// request operations the pipeline needs.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
)

// Client defines the GitHub API operations the review pipeline needs.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	// GetPullRequest fetches the current state of a pull request.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)

	// ListChangedFiles returns every file changed in a pull request,
	// fetching all pages and preserving the order the host returns.
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]core.ChangedFile, error)

	// CreateComment posts an issue comment on a pull request and returns
	// the new comment's ID.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)

	// FetchRepoConfig loads the repository's review configuration file
	// from the given ref.
	FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*core.RepoConfig, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient wraps an already configured go-github client.
func NewClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient builds a client authenticated with a personal access token.
// Used by the CLI, where no app installation is available.
func NewPATClient(ctx context.Context, token, apiBaseURL string, logger *slog.Logger) (Client, error) {
	return newTokenClient(ctx, token, apiBaseURL, logger)
}

func newTokenClient(ctx context.Context, token, apiBaseURL string, logger *slog.Logger) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if apiBaseURL != "" {
		base := strings.TrimSuffix(apiBaseURL, "/") + "/"
		var err error
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("failed to set API base URL %s: %w", apiBaseURL, err)
		}
	}

	return &gitHubClient{client: client, logger: logger}, nil
}

// ClientFactory builds API clients bound to installation tokens.
type ClientFactory struct {
	apiBaseURL string
	logger     *slog.Logger
}

func NewClientFactory(cfg *config.Config, logger *slog.Logger) *ClientFactory {
	return &ClientFactory{apiBaseURL: cfg.GitHub.APIBaseURL, logger: logger}
}

// ForToken returns a client authenticated as the installation that owns the
// token.
func (f *ClientFactory) ForToken(ctx context.Context, tok core.InstallationToken) (Client, error) {
	return newTokenClient(ctx, tok.Token, f.apiBaseURL, f.logger)
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, classifyError("get pull request", err)
	}
	return pr, nil
}

// ListChangedFiles retrieves the list of files modified in a pull request.
// The API returns at most 100 files per page, so pagination is followed
// until exhausted. Binary and oversized files come back without patch text;
// those are flagged rather than treated as errors.
func (g *gitHubClient) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]core.ChangedFile, error) {
	var allFiles []core.ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list changed files", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, classifyError("list changed files", err)
		}

		for _, file := range files {
			allFiles = append(allFiles, core.ChangedFile{
				Path:         file.GetFilename(),
				Patch:        file.GetPatch(),
				Additions:    file.GetAdditions(),
				Deletions:    file.GetDeletions(),
				PatchOmitted: file.Patch == nil,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// CreateComment posts a new comment on a pull request.
func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	created, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
		return 0, classifyError("create comment", err)
	}
	return created.GetID(), nil
}
