package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/sync/singleflight"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
)

// TokenExchanger mints a fresh installation token from the GitHub App
// credentials.
type TokenExchanger interface {
	Exchange(ctx context.Context, installationID int64) (core.InstallationToken, error)
}

type appsExchanger struct {
	client *github.Client
	logger *slog.Logger
}

// NewAppsExchanger reads the app private key and builds a client on the
// apps transport. The transport signs a short-lived JWT fresh for every
// request; the JWT itself is never stored anywhere, only the installation
// tokens it buys are cached (see TokenCache).
func NewAppsExchanger(cfg *config.Config, logger *slog.Logger) (TokenExchanger, error) {
	key, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	transport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}

	client := github.NewClient(&http.Client{Transport: transport})
	if cfg.GitHub.APIBaseURL != "" {
		base := strings.TrimSuffix(cfg.GitHub.APIBaseURL, "/") + "/"
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("failed to set API base URL %s: %w", cfg.GitHub.APIBaseURL, err)
		}
	}

	return &appsExchanger{client: client, logger: logger}, nil
}

func (e *appsExchanger) Exchange(ctx context.Context, installationID int64) (core.InstallationToken, error) {
	token, _, err := e.client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		e.logger.Error("failed to create installation token", "installation_id", installationID, "error", err)
		return core.InstallationToken{}, classifyExchangeError("create installation token", err)
	}
	if token.GetToken() == "" {
		return core.InstallationToken{}, core.NewAuthError("create installation token",
			fmt.Errorf("token endpoint returned an empty token"))
	}

	e.logger.Info("minted installation token",
		"installation_id", installationID, "expires_at", token.GetExpiresAt())

	return core.InstallationToken{
		InstallationID: installationID,
		Token:          token.GetToken(),
		ExpiresAt:      token.GetExpiresAt().Time,
	}, nil
}

// TokenCache hands out installation tokens, reusing a cached token until it
// comes within the refresh margin of its expiry. Concurrent callers for the
// same stale installation share a single exchange; exchange failures are
// never retried here, they propagate to the caller.
type TokenCache struct {
	exchanger TokenExchanger
	margin    time.Duration
	logger    *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	tokens map[int64]core.InstallationToken

	now func() time.Time
}

// NewTokenCache builds a cache over the given exchanger. A non-positive
// margin falls back to one minute.
func NewTokenCache(exchanger TokenExchanger, margin time.Duration, logger *slog.Logger) *TokenCache {
	if margin <= 0 {
		margin = time.Minute
	}
	return &TokenCache{
		exchanger: exchanger,
		margin:    margin,
		logger:    logger,
		tokens:    make(map[int64]core.InstallationToken),
		now:       time.Now,
	}
}

// Token returns an installation token guaranteed fresh for at least the
// refresh margin.
func (c *TokenCache) Token(ctx context.Context, installationID int64) (core.InstallationToken, error) {
	if tok, ok := c.cached(installationID); ok {
		c.logger.Debug("token cache hit", "installation_id", installationID)
		return tok, nil
	}

	key := strconv.FormatInt(installationID, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		// A refresh that completed while this caller queued may already
		// have replaced the entry.
		if tok, ok := c.cached(installationID); ok {
			return tok, nil
		}

		tok, err := c.exchanger.Exchange(ctx, installationID)
		if err != nil {
			return core.InstallationToken{}, err
		}

		c.mu.Lock()
		c.tokens[installationID] = tok
		c.mu.Unlock()

		return tok, nil
	})
	if err != nil {
		return core.InstallationToken{}, err
	}
	return v.(core.InstallationToken), nil
}

// Invalidate drops the cached token for an installation so the next Token
// call exchanges again. Called when the host rejects a token we believed
// was still fresh.
func (c *TokenCache) Invalidate(installationID int64) {
	c.mu.Lock()
	delete(c.tokens, installationID)
	c.mu.Unlock()
}

func (c *TokenCache) cached(installationID int64) (core.InstallationToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tok, ok := c.tokens[installationID]
	if !ok || !tok.Fresh(c.now(), c.margin) {
		return core.InstallationToken{}, false
	}
	return tok, true
}
