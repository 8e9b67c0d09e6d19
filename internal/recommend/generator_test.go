package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

func keywordViolation(text string, sev models.Severity) models.ViolationMatch {
	return models.ViolationMatch{
		RuleID:      "CLAIM-001",
		RuleTitle:   "No unconditional approval promises",
		Category:    "approval_claims",
		Kind:        models.KindKeywordViolation,
		MatchedText: text,
		Severity:    sev,
		Citation: models.Citation{
			SourceDocument: "Fair Lending Advertising Code",
			Section:        "5.1",
		},
	}
}

func TestFindReplacement_OrderedTable(t *testing.T) {
	tests := []struct {
		name    string
		matched string
		want    string
	}{
		{name: "specific beats general", matched: "Guaranteed Approval", want: "approval subject to eligibility checks"},
		{name: "general guaranteed", matched: "guaranteed payout", want: "subject to eligibility"},
		{name: "instant approval", matched: "INSTANT APPROVAL", want: "quick processing subject to verification"},
		{name: "risk-free hyphenated", matched: "totally risk-free", want: "regulated financial service"},
		{name: "risk free spaced", matched: "risk free investing", want: "regulated financial service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repl, ok := findReplacement(tt.matched)
			require.True(t, ok)
			assert.Equal(t, tt.want, repl.conservative)
		})
	}

	_, ok := findReplacement("perfectly ordinary copy")
	assert.False(t, ok)
}

func TestFixFor(t *testing.T) {
	t.Run("table replacement", func(t *testing.T) {
		fix := fixFor(keywordViolation("Guaranteed Approval", models.SeverityCritical))

		assert.Equal(t, "Guaranteed Approval", fix.OriginalText)
		assert.Equal(t, "approval subject to eligibility checks", fix.SuggestedText)
		assert.Equal(t, models.SeverityCritical, fix.Priority)
		assert.Equal(t, models.DifficultyEasy, fix.Difficulty)
		assert.Equal(t, models.ImpactSignificant, fix.Impact)
		assert.Equal(t, "Fair Lending Advertising Code, section 5.1", fix.Citation)
	})

	t.Run("prohibited claim framing", func(t *testing.T) {
		v := keywordViolation("no documentation", models.SeverityCritical)
		v.Kind = models.KindProhibitedClaim
		fix := fixFor(v)

		assert.True(t, strings.HasPrefix(fix.Reason, "Prohibited claim: "))
		assert.Equal(t, models.DifficultyModerate, fix.Difficulty)
		assert.Equal(t, models.ImpactSignificant, fix.Impact)
	})

	t.Run("generic fallback qualifies the claim", func(t *testing.T) {
		fix := fixFor(keywordViolation("double your money", models.SeverityMedium))

		assert.Equal(t, "double your money"+qualifyingSuffix, fix.SuggestedText)
		assert.Contains(t, fix.Reason, "qualified")
		assert.Equal(t, models.DifficultyModerate, fix.Difficulty)
		assert.Equal(t, models.ImpactMinimal, fix.Impact)
	})
}

func TestGenerate_OverallApproachLadder(t *testing.T) {
	mk := func(sev models.Severity, n int) []models.ViolationMatch {
		var out []models.ViolationMatch
		for i := 0; i < n; i++ {
			out = append(out, keywordViolation("guaranteed", sev))
		}
		return out
	}

	tests := []struct {
		name       string
		violations []models.ViolationMatch
		wantPrefix string
	}{
		{name: "critical", violations: mk(models.SeverityCritical, 1), wantPrefix: "Immediate action required"},
		{name: "many high", violations: mk(models.SeverityHigh, 3), wantPrefix: "Significant revision needed"},
		{name: "some violations", violations: mk(models.SeverityMedium, 1), wantPrefix: "Moderate improvements needed"},
		{name: "clean", violations: nil, wantPrefix: "Minor enhancements only"},
	}

	g := NewGenerator(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := g.Generate("text", &models.ComplianceAnalysis{Violations: tt.violations}, nil, nil)
			assert.True(t, strings.HasPrefix(recs.OverallApproach, tt.wantPrefix),
				"got %q", recs.OverallApproach)
		})
	}
}

func TestGenerate_Alternatives(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	text := "Guaranteed Approval! Apply today."
	analysis := &models.ComplianceAnalysis{
		Violations: []models.ViolationMatch{keywordViolation("Guaranteed Approval", models.SeverityCritical)},
	}

	t.Run("with successful rewrite", func(t *testing.T) {
		rewrite := &models.RewriteResult{RewrittenText: "Approval subject to eligibility. Apply today."}
		recs := g.Generate(text, analysis, nil, rewrite)

		require.Len(t, recs.Alternatives, 3)
		assert.Equal(t, models.AlternativeConservative, recs.Alternatives[0].Label)
		assert.Contains(t, recs.Alternatives[0].Text, "approval subject to eligibility checks")
		assert.NotContains(t, recs.Alternatives[0].Text, "Guaranteed Approval")

		assert.Equal(t, models.AlternativeBalanced, recs.Alternatives[1].Label)
		assert.Contains(t, recs.Alternatives[1].Text, "fast decisions for eligible applicants")

		assert.Equal(t, models.AlternativeAIEnhanced, recs.Alternatives[2].Label)
		assert.Equal(t, rewrite.RewrittenText, recs.Alternatives[2].Text)
	})

	t.Run("rewrite fallback drops the ai version", func(t *testing.T) {
		rewrite := &models.RewriteResult{RewrittenText: text, Fallback: true}
		recs := g.Generate(text, analysis, nil, rewrite)

		require.Len(t, recs.Alternatives, 2)
		for _, alt := range recs.Alternatives {
			assert.NotEqual(t, models.AlternativeAIEnhanced, alt.Label)
		}
	})
}

func TestToneAdjustments(t *testing.T) {
	t.Run("lexical signals", func(t *testing.T) {
		out := toneAdjustments("Act now!! The best and lowest rates!!", nil)

		assert.Len(t, out, 3)
		assert.Contains(t, out[0], "exclamation")
	})

	t.Run("model tone merged when flagged", func(t *testing.T) {
		insights := &models.ModelInsights{
			Tone: models.ToneAssessment{
				Label:       "aggressive",
				Appropriate: false,
				Suggestions: []string{"Let the offer speak for itself"},
			},
		}
		out := toneAdjustments("plain copy", insights)
		assert.Equal(t, []string{"Let the offer speak for itself"}, out)
	})

	t.Run("appropriate tone not merged", func(t *testing.T) {
		insights := &models.ModelInsights{
			Tone: models.ToneAssessment{Label: "appropriate", Appropriate: true, Suggestions: []string{"noise"}},
		}
		assert.Empty(t, toneAdjustments("plain copy", insights))
	})
}

func TestAdditions(t *testing.T) {
	missing := []models.MissingElement{
		{Element: "annual percentage rate", RuleTitle: "Interest rate claims need APR"},
		{Element: "annual percentage rate", RuleTitle: "duplicate"},
		{Element: "loan tenure details", RuleTitle: ""},
	}

	out := additions(missing)
	require.Len(t, out, 2, "duplicate elements collapse")

	assert.Contains(t, out[0].SuggestedText, "Annual Percentage Rate (APR)")
	assert.Equal(t, "immediately after the headline offer", out[0].Placement)
	assert.Equal(t, "Interest rate claims need APR", out[0].Reference, "rule title wins as the reference")

	assert.Equal(t, "loan tenure details", out[1].Element)
	assert.Contains(t, out[1].SuggestedText, "loan tenure details")
	assert.Equal(t, "General disclosure requirements", out[1].Reference)
}

func TestChecklist(t *testing.T) {
	analysis := &models.ComplianceAnalysis{
		Violations: []models.ViolationMatch{
			keywordViolation("guaranteed", models.SeverityCritical),
			keywordViolation("guaranteed again", models.SeverityCritical),
		},
		MissingElements: []models.MissingElement{
			{Element: "apr"},
			{Element: "grievance contact"},
		},
	}

	items := checklist(analysis)

	for _, base := range baselineChecklist {
		assert.Contains(t, items, base)
	}

	var categoryCount int
	for _, item := range items {
		if item == categoryChecklist["approval_claims"] {
			categoryCount++
		}
	}
	assert.Equal(t, 1, categoryCount, "repeated categories add their item once")

	assert.Contains(t, items, "Add missing elements: apr; grievance contact")
}

func TestGenerate_FixesDeduplicated(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	analysis := &models.ComplianceAnalysis{
		Violations: []models.ViolationMatch{
			keywordViolation("Guaranteed", models.SeverityCritical),
			keywordViolation("guaranteed", models.SeverityCritical),
			keywordViolation("instant cash", models.SeverityMedium),
		},
	}

	recs := g.Generate("Guaranteed instant cash", analysis, nil, nil)
	require.Len(t, recs.Fixes, 2)
	assert.Equal(t, "Guaranteed", recs.Fixes[0].OriginalText, "first occurrence wins")
}
