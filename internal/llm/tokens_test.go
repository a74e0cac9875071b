package llm

import (
	"strings"
	"testing"
)

func TestTokenEstimatorByteHeuristic(t *testing.T) {
	est := &TokenEstimator{}

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		if got := est.Estimate(tt.text); got != tt.want {
			t.Errorf("Estimate(%d bytes) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestTokenEstimatorGrowsWithInput(t *testing.T) {
	est := NewTokenEstimator(testLogger())

	short := est.Estimate("func main() {}")
	long := est.Estimate(strings.Repeat("func main() {}\n", 64))

	if short <= 0 {
		t.Errorf("Estimate(short) = %d, want positive", short)
	}
	if long <= short {
		t.Errorf("Estimate(long) = %d, want more than short %d", long, short)
	}
	if est.Estimate("") != 0 {
		t.Error("Estimate of empty text should be 0")
	}
}
