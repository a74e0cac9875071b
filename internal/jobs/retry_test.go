package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ganderhq/gander/internal/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetryAttemptBudgets(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{
			name:      "auth never retried",
			err:       core.NewAuthError("exchange token", errors.New("401 Bad credentials")),
			wantCalls: 1,
		},
		{
			name:      "not found never retried",
			err:       core.NewNotFoundError("fetch changed files", errors.New("404 Not Found")),
			wantCalls: 1,
		},
		{
			name:      "generation retried exactly once",
			err:       core.NewGenerationError("generate review", errors.New("model returned an empty review")),
			wantCalls: 2,
		},
		{
			name:      "rate limit retried up to the budget",
			err:       core.NewRateLimitError("fetch changed files", errors.New("403 rate limit exceeded")),
			wantCalls: 3,
		},
		{
			name:      "transient retried up to the budget",
			err:       core.NewTransientError("fetch changed files", errors.New("connection reset")),
			wantCalls: 3,
		},
		{
			name:      "unclassified treated as transient",
			err:       errors.New("something odd"),
			wantCalls: 3,
		},
		{
			name:      "nothing reviewable never retried",
			err:       core.ErrNoReviewableChanges,
			wantCalls: 1,
		},
		{
			name:      "wrapped auth still recognized",
			err:       fmt.Errorf("stage: %w", core.NewAuthError("exchange token", errors.New("nope"))),
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(context.Background(), fastRetryConfig(), testLogger(), "stage", func(ctx context.Context) error {
				calls++
				return tt.err
			})
			if calls != tt.wantCalls {
				t.Errorf("retry made %d calls, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("retry returned %v, want the last error %v", err, tt.err)
			}
		})
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetryConfig(), testLogger(), "stage", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return core.NewTransientError("stage", errors.New("flaky"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry returned %v, want nil after recovery", err)
	}
	if calls != 3 {
		t.Errorf("retry made %d calls, want 3", calls)
	}
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry(ctx, fastRetryConfig(), testLogger(), "stage", func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("retry returned %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("retry made %d calls on a dead context, want 0", calls)
	}
}

func TestRetryStopsWaitingWhenContextDies(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.InitialBackoff = time.Minute
	cfg.MaxBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	stageErr := core.NewTransientError("stage", errors.New("flaky"))

	done := make(chan error, 1)
	go func() {
		done <- retry(ctx, cfg, testLogger(), "stage", func(ctx context.Context) error {
			return stageErr
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, stageErr) {
			t.Errorf("retry returned %v, want the stage error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry kept sleeping after the context was cancelled")
	}
}

func TestBackoffForGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		Multiplier:     2.0,
	}

	first := cfg.backoffFor(0)
	if first < 750*time.Millisecond || first > 1250*time.Millisecond {
		t.Errorf("backoffFor(0) = %v, want within 25%% of 1s", first)
	}

	for attempt := 2; attempt < 8; attempt++ {
		if got := cfg.backoffFor(attempt); got > cfg.MaxBackoff {
			t.Errorf("backoffFor(%d) = %v, want at most %v", attempt, got, cfg.MaxBackoff)
		}
	}
}

func TestRetryConfigWithDefaults(t *testing.T) {
	got := RetryConfig{}.withDefaults()
	want := DefaultRetryConfig()
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}

	custom := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Minute, Multiplier: 3}
	if got := custom.withDefaults(); got != custom {
		t.Errorf("withDefaults() = %+v, want config untouched", got)
	}
}
