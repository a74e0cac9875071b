package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/ganderhq/gander/internal/core"
)

// classifyError translates a go-github error into the pipeline's error
// taxonomy so the retry policy can act on the kind alone. Errors without an
// HTTP response (dial failures, timeouts, cancelled contexts) are transient.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return core.NewRateLimitError(op, err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return core.NewRateLimitError(op, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return core.NewAuthError(op, err)
		case http.StatusNotFound, http.StatusGone:
			return core.NewNotFoundError(op, err)
		case http.StatusTooManyRequests:
			return core.NewRateLimitError(op, err)
		}
	}

	return core.NewTransientError(op, err)
}

// classifyExchangeError maps failures of the installation token exchange.
// Any non-success status from the token endpoint means the app credential
// was not accepted, so every HTTP-level failure is an auth error; only
// errors without a response stay transient.
func classifyExchangeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &respErr) || errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return core.NewAuthError(op, err)
	}

	return core.NewTransientError(op, err)
}
