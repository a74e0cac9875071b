package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"
	"gopkg.in/yaml.v3"

	"github.com/ganderhq/gander/internal/core"
)

// RepoConfigPath is where a repository keeps its review configuration.
const RepoConfigPath = ".gander.yml"

var (
	ErrConfigNotFound = errors.New("repo config not found")
	ErrConfigParsing  = errors.New("repo config parsing failed")
)

// FetchRepoConfig loads .gander.yml from the repository at the given ref via
// the contents API. A missing file returns the defaults together with
// ErrConfigNotFound so callers can tell the cases apart.
func (g *gitHubClient) FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*core.RepoConfig, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	content, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, RepoConfigPath, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return core.DefaultRepoConfig(), ErrConfigNotFound
		}
		g.logger.Error("failed to fetch repo config", "owner", owner, "repo", repo, "ref", ref, "error", err)
		return nil, classifyError("fetch repo config", err)
	}
	if content == nil {
		return core.DefaultRepoConfig(), ErrConfigNotFound
	}

	raw, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}

	cfg := core.DefaultRepoConfig()
	if err := yaml.Unmarshal([]byte(raw), cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	return cfg, nil
}
