package llm

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator counts prompt tokens with the cl100k_base encoding. When
// the encoding cannot be loaded it falls back to a bytes-per-token
// heuristic that errs on the high side.
type TokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenEstimator(logger *slog.Logger) *TokenEstimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tokenizer unavailable, using byte estimate", "error", err)
		return &TokenEstimator{}
	}
	return &TokenEstimator{encoding: enc}
}

// Estimate returns the approximate number of tokens in text.
func (e *TokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	if e == nil || e.encoding == nil {
		// Roughly four bytes per token for code-heavy text.
		return (len(text) + 3) / 4
	}
	return len(e.encoding.Encode(text, nil, nil))
}
