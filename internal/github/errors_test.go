package github

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"

	"github.com/ganderhq/gander/internal/core"
)

func ghResponseError(status int) error {
	return &github.ErrorResponse{
		Response: &http.Response{
			StatusCode: status,
			Request:    &http.Request{Method: http.MethodGet},
		},
		Message: http.StatusText(status),
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.ErrorKind
	}{
		{
			name: "unauthorized",
			err:  ghResponseError(http.StatusUnauthorized),
			want: core.KindAuth,
		},
		{
			name: "forbidden",
			err:  ghResponseError(http.StatusForbidden),
			want: core.KindAuth,
		},
		{
			name: "not found",
			err:  ghResponseError(http.StatusNotFound),
			want: core.KindNotFound,
		},
		{
			name: "gone",
			err:  ghResponseError(http.StatusGone),
			want: core.KindNotFound,
		},
		{
			name: "too many requests",
			err:  ghResponseError(http.StatusTooManyRequests),
			want: core.KindRateLimit,
		},
		{
			name: "primary rate limit",
			err: &github.RateLimitError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "API rate limit exceeded",
			},
			want: core.KindRateLimit,
		},
		{
			name: "secondary rate limit",
			err: &github.AbuseRateLimitError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "You have exceeded a secondary rate limit",
			},
			want: core.KindRateLimit,
		},
		{
			name: "server error",
			err:  ghResponseError(http.StatusBadGateway),
			want: core.KindTransient,
		},
		{
			name: "unprocessable entity",
			err:  ghResponseError(http.StatusUnprocessableEntity),
			want: core.KindTransient,
		},
		{
			name: "network failure without response",
			err:  errors.New("dial tcp: connection refused"),
			want: core.KindTransient,
		},
		{
			name: "wrapped response error",
			err:  fmt.Errorf("listing files: %w", ghResponseError(http.StatusNotFound)),
			want: core.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("test op", tt.err)
			if kind := core.KindOf(got); kind != tt.want {
				t.Errorf("classifyError() kind = %v, want %v", kind, tt.want)
			}
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if got := classifyError("test op", nil); got != nil {
		t.Errorf("classifyError(nil) = %v, want nil", got)
	}
}

func TestClassifyExchangeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.ErrorKind
	}{
		{
			name: "unauthorized exchange",
			err:  ghResponseError(http.StatusUnauthorized),
			want: core.KindAuth,
		},
		{
			name: "not found installation",
			err:  ghResponseError(http.StatusNotFound),
			want: core.KindAuth,
		},
		{
			name: "server error from token endpoint",
			err:  ghResponseError(http.StatusInternalServerError),
			want: core.KindAuth,
		},
		{
			name: "rate limited exchange",
			err: &github.RateLimitError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
			},
			want: core.KindAuth,
		},
		{
			name: "network failure without response",
			err:  errors.New("dial tcp: i/o timeout"),
			want: core.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyExchangeError("exchange token", tt.err)
			if kind := core.KindOf(got); kind != tt.want {
				t.Errorf("classifyExchangeError() kind = %v, want %v", kind, tt.want)
			}
		})
	}
}
