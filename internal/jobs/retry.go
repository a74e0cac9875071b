package jobs

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ganderhq/gander/internal/core"
)

// RetryConfig bounds how often a failed pipeline stage is reattempted. The
// budget depends on the failure's classification, so MaxAttempts only applies
// to rate-limit and transient errors; see attemptsFor.
type RetryConfig struct {
	// MaxAttempts is the total number of tries for rate-limit and transient
	// failures, including the first one.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns the retry policy used when the server config
// leaves the knobs unset.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.Multiplier < 1 {
		c.Multiplier = def.Multiplier
	}
	return c
}

// attemptsFor maps an error to its total attempt budget. Credential and
// missing-resource failures are dropped immediately, a failed or unusable
// model response gets exactly one more try, and everything else gets the
// configured bounded budget.
func (c RetryConfig) attemptsFor(err error) int {
	if errors.Is(err, core.ErrNoReviewableChanges) {
		return 1
	}
	switch core.KindOf(err) {
	case core.KindAuth, core.KindNotFound:
		return 1
	case core.KindGeneration:
		return 2
	default:
		return c.MaxAttempts
	}
}

// backoffFor calculates the wait before the given retry, growing
// exponentially from InitialBackoff with +/-25% jitter and capped at
// MaxBackoff. attempt is zero-based: the wait after the first failure uses
// attempt 0.
func (c RetryConfig) backoffFor(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}

	jitterRange := 0.25 * backoff
	backoff += (rand.Float64() * 2 * jitterRange) - jitterRange

	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	if backoff < 0 {
		backoff = 0
	}
	return time.Duration(backoff)
}

// retry runs fn until it succeeds, its error classification forbids another
// attempt, or ctx is cancelled. Each failure's own classification decides the
// remaining budget, so a transient blip followed by a rejected credential
// still stops immediately.
func retry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		budget := cfg.attemptsFor(err)
		if attempt >= budget {
			return err
		}

		wait := cfg.backoffFor(attempt - 1)
		logger.Warn("stage failed, retrying",
			"op", op,
			"attempt", attempt,
			"budget", budget,
			"backoff", wait,
			"error", err,
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return err
		}
	}
}
