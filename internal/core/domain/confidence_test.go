package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(scores ...float64) []SearchResult {
	out := make([]SearchResult, len(scores))
	for i, s := range scores {
		out[i] = SearchResult{Similarity: s}
	}
	return out
}

func TestAssessConfidence(t *testing.T) {
	th := DefaultConfidenceThresholds()

	tests := []struct {
		name   string
		scores []float64
		want   ConfidenceLevel
	}{
		{"no results", nil, ConfidenceNone},
		{"high when both thresholds met", []float64{0.95, 0.80, 0.78}, ConfidenceHigh},
		{"high at exact thresholds", []float64{0.85, 0.75, 0.65}, ConfidenceHigh}, // avg is exactly 0.75
		{"medium when max high but avg low", []float64{0.90, 0.40}, ConfidenceMedium},
		{"medium band", []float64{0.72, 0.65}, ConfidenceMedium},
		{"low below medium band", []float64{0.65, 0.50}, ConfidenceLow},
		{"single strong result", []float64{0.92}, ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessConfidence(scored(tt.scores...), th)
			assert.Equal(t, tt.want, got.Level)
			assert.Equal(t, len(tt.scores), got.ChunksRetrieved)
		})
	}
}

func TestAssessConfidence_EmptyMetricsAreZero(t *testing.T) {
	got := AssessConfidence(nil, DefaultConfidenceThresholds())
	assert.Equal(t, ConfidenceNone, got.Level)
	assert.Zero(t, got.AvgSimilarity)
	assert.Zero(t, got.MaxSimilarity)
	assert.Zero(t, got.ChunksRetrieved)
}

func TestAssessConfidence_Metrics(t *testing.T) {
	got := AssessConfidence(scored(0.9, 0.7, 0.5), DefaultConfidenceThresholds())
	assert.InDelta(t, 0.7, got.AvgSimilarity, 1e-9)
	assert.InDelta(t, 0.9, got.MaxSimilarity, 1e-9)
	assert.Equal(t, 3, got.ChunksRetrieved)
}

// levelRank orders levels for the monotonicity property.
func levelRank(l ConfidenceLevel) int {
	switch l {
	case ConfidenceNone:
		return 0
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	default:
		return 3
	}
}

func TestAssessConfidence_Monotonic(t *testing.T) {
	th := DefaultConfidenceThresholds()

	base := []float64{0.30, 0.55, 0.62, 0.71}
	prev := AssessConfidence(scored(base...), th)

	// Raising every similarity must never lower the level.
	for _, bump := range []float64{0.05, 0.10, 0.15, 0.20, 0.25} {
		raised := make([]float64, len(base))
		for i, s := range base {
			raised[i] = s + bump
		}
		got := AssessConfidence(scored(raised...), th)
		assert.GreaterOrEqual(t, levelRank(got.Level), levelRank(prev.Level),
			"bump %.2f lowered confidence", bump)
		prev = got
	}
}
