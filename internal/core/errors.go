package core

import (
	"errors"
	"fmt"
)

// ErrNoReviewableChanges reports that a revision contains nothing worth
// sending to the model: every changed file was binary, oversized, or excluded
// by repository configuration. It is a clean skip, not a failure, and is
// never retried.
var ErrNoReviewableChanges = errors.New("no reviewable changes")

// ErrorKind classifies a pipeline failure. The orchestrator's retry policy is
// driven entirely by this classification: auth and not-found failures are
// dropped, rate-limit and transient failures get a small bounded number of
// retries, and generation failures are retried exactly once.
type ErrorKind int

const (
	// KindAuth covers rejected credentials: a bad webhook secret is handled
	// before any Error is built, so in practice this means the app's signing
	// key or an installation token was refused.
	KindAuth ErrorKind = iota
	// KindNotFound covers PRs or repositories that no longer exist.
	KindNotFound
	// KindRateLimit covers primary and secondary rate limiting by the host.
	KindRateLimit
	// KindGeneration covers model calls that failed or returned unusable text.
	KindGeneration
	// KindTransient covers network-level failures with no HTTP response.
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindGeneration:
		return "generation"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified failure from one pipeline stage. Op names the stage
// ("token", "diff", "generate", "publish") so logs can tell where a run died.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthError wraps err as a non-retryable credential failure.
func NewAuthError(op string, err error) *Error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

// NewNotFoundError wraps err as a missing-resource failure.
func NewNotFoundError(op string, err error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// NewRateLimitError wraps err as a host-throttling failure.
func NewRateLimitError(op string, err error) *Error {
	return &Error{Kind: KindRateLimit, Op: op, Err: err}
}

// NewGenerationError wraps err as a failed or unusable model response.
func NewGenerationError(op string, err error) *Error {
	return &Error{Kind: KindGeneration, Op: op, Err: err}
}

// NewTransientError wraps err as a network-level failure worth retrying.
func NewTransientError(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// KindOf extracts the classification from err, or KindTransient if err was
// never classified. Unclassified errors get the cautious default: a bounded
// retry rather than an immediate drop.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}

func isKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// IsAuth reports whether err is classified as a credential failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsNotFound reports whether err is classified as a missing resource.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsRateLimit reports whether err is classified as host throttling.
func IsRateLimit(err error) bool { return isKind(err, KindRateLimit) }

// IsGeneration reports whether err is classified as a model failure.
func IsGeneration(err error) bool { return isKind(err, KindGeneration) }

// IsTransient reports whether err is classified as a network failure.
func IsTransient(err error) bool { return isKind(err, KindTransient) }
