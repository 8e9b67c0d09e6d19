package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoringMethodology_LevelFor(t *testing.T) {
	m := ScoringMethodology{CompliantThreshold: 80, ReviewThreshold: 50}

	tests := []struct {
		score float64
		want  ComplianceLevel
	}{
		{score: 85, want: LevelCompliant},
		{score: 80, want: LevelCompliant},
		{score: 65, want: LevelNeedsReview},
		{score: 50, want: LevelNeedsReview},
		{score: 30, want: LevelNonCompliant},
		{score: 0, want: LevelNonCompliant},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.LevelFor(tt.score), "score %.0f", tt.score)
	}
}

func TestScoringMethodology_ColorFor(t *testing.T) {
	m := ScoringMethodology{CompliantThreshold: 80, ReviewThreshold: 50}

	assert.Equal(t, ColorGreen, m.ColorFor(92))
	assert.Equal(t, ColorYellow, m.ColorFor(65))
	assert.Equal(t, ColorRed, m.ColorFor(20))
}

func TestScoringMethodology_DeductionFor(t *testing.T) {
	m := ScoringMethodology{SeverityDeductions: map[Severity]float64{SeverityHigh: -15}}

	assert.InDelta(t, -15, m.DeductionFor(SeverityHigh), 0.001)
	assert.InDelta(t, 0, m.DeductionFor(SeverityLow), 0.001, "unknown severities deduct nothing")
	assert.InDelta(t, 0, ScoringMethodology{}.DeductionFor(SeverityHigh), 0.001)
}

func TestSeverity_Rank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())
	assert.False(t, Severity("bogus").Valid())
}

func TestGuidelineSet_RuleCount(t *testing.T) {
	set := GuidelineSet{
		Guidelines: map[string][]Rule{
			"a": {{ID: "A-1"}, {ID: "A-2"}},
			"b": {{ID: "B-1"}},
		},
	}
	assert.Equal(t, 3, set.RuleCount())
}
