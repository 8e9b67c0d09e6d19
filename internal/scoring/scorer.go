package scoring

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// ErrNoMethodology is returned when the guideline corpus carries no usable
// scoring methodology. There is no safe default score to fabricate, so
// this is a hard failure of the scoring stage.
var ErrNoMethodology = errors.New("scoring methodology not configured")

// GuidelineSource is the slice of the guideline repository the scorer needs
type GuidelineSource interface {
	Set() *models.GuidelineSet
}

// Scorer converts raw detector findings into a full compliance report
type Scorer struct {
	guidelines GuidelineSource
	logger     *zap.Logger
}

// NewScorer creates a new scorer
func NewScorer(guidelines GuidelineSource, logger *zap.Logger) *Scorer {
	return &Scorer{
		guidelines: guidelines,
		logger:     logger,
	}
}

// BuildReport recomputes the detailed score breakdown from the findings
// and adds citations, recommendations and a narrative summary
func (s *Scorer) BuildReport(analysis *models.ComplianceAnalysis) (*models.ComplianceReport, error) {
	set := s.guidelines.Set()
	if set == nil {
		return nil, ErrNoMethodology
	}
	methodology := set.Methodology
	if methodology.BaseScore <= 0 || len(methodology.SeverityDeductions) == 0 {
		return nil, ErrNoMethodology
	}

	breakdown := s.breakdown(methodology, analysis)
	report := &models.ComplianceReport{
		Breakdown:       breakdown,
		Violations:      analysis.Violations,
		MissingElements: analysis.MissingElements,
		Recommendations: recommendations(analysis, breakdown.Risk.Level),
		Citations:       citations(analysis.Violations),
		Summary:         summarize(breakdown, analysis),
	}

	s.logger.Debug("Report built",
		zap.Float64("total_score", breakdown.TotalScore),
		zap.String("level", string(breakdown.Level)),
		zap.String("risk", string(breakdown.Risk.Level)),
		zap.Int("citations", len(report.Citations)))

	return report, nil
}

// breakdown splits the score into per-severity deduction totals, the
// prohibited-claim surcharge and per-category sub-scores
func (s *Scorer) breakdown(m models.ScoringMethodology, analysis *models.ComplianceAnalysis) models.ScoreBreakdown {
	deductions := make(map[models.Severity]float64)
	var surcharge float64
	for _, v := range analysis.Violations {
		base := -m.DeductionFor(v.Severity)
		deductions[v.Severity] += base
		if v.Kind == models.KindProhibitedClaim {
			surcharge += base * 0.5
		}
	}

	missingDeduction := float64(len(analysis.MissingElements)) * -m.MissingElementPenalty

	total := m.BaseScore - surcharge - missingDeduction
	for _, d := range deductions {
		total -= d
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	// Category sub-scores stay unclamped: a category can go negative when
	// its deductions exceed its weight share, and that signal is kept
	categoryScores := make(map[string]float64, len(m.CategoryWeights))
	for category, weight := range m.CategoryWeights {
		var impacts float64
		for _, v := range analysis.Violations {
			if v.Category == category {
				impacts += v.Impact
			}
		}
		categoryScores[category] = weight * (100 + impacts) / 100
	}

	return models.ScoreBreakdown{
		TotalScore:               total,
		BaseScore:                m.BaseScore,
		SeverityDeductions:       deductions,
		ProhibitedClaimSurcharge: surcharge,
		MissingElementDeduction:  missingDeduction,
		CategoryScores:           categoryScores,
		Level:                    m.LevelFor(total),
		ColorCode:                m.ColorFor(total),
		Risk:                     riskIndicators(analysis),
	}
}

// riskIndicators escalates through four tiers, each with its fixed set of
// immediate actions
func riskIndicators(analysis *models.ComplianceAnalysis) models.RiskIndicators {
	critical := analysis.CriticalCount()
	high := analysis.HighCount()

	var factors []string
	if critical > 0 {
		factors = append(factors, fmt.Sprintf("%d critical violation(s) detected", critical))
	}
	if high > 0 {
		factors = append(factors, fmt.Sprintf("%d high-severity violation(s) detected", high))
	}
	if rest := len(analysis.Violations) - critical - high; rest > 0 {
		factors = append(factors, fmt.Sprintf("%d further violation(s) detected", rest))
	}
	if n := len(analysis.MissingElements); n > 0 {
		factors = append(factors, fmt.Sprintf("%d required element(s) missing", n))
	}
	if n := len(analysis.MissingDisclaimers); n > 0 {
		factors = append(factors, fmt.Sprintf("%d required disclaimer(s) missing", n))
	}

	switch {
	case critical > 0:
		return models.RiskIndicators{
			Level:   models.RiskCritical,
			Factors: factors,
			ImmediateActions: []string{
				"Stop campaign distribution immediately",
				"Legal review required before republication",
				"Remove or rewrite all critical claims",
			},
		}
	case high > 2:
		return models.RiskIndicators{
			Level:   models.RiskHigh,
			Factors: factors,
			ImmediateActions: []string{
				"Pause new placements until flagged claims are revised",
				"Schedule a compliance review of the full campaign",
			},
		}
	case len(analysis.Violations) > 0:
		return models.RiskIndicators{
			Level:   models.RiskMedium,
			Factors: factors,
			ImmediateActions: []string{
				"Address flagged violations before the next release",
				"Re-run the analysis after edits",
			},
		}
	default:
		if len(factors) == 0 {
			factors = []string{"no rule violations detected"}
		}
		return models.RiskIndicators{
			Level:            models.RiskLow,
			Factors:          factors,
			ImmediateActions: []string{"Proceed with standard publication review"},
		}
	}
}

// citations groups violations by rule so each violated rule yields exactly
// one citation entry, with every matched text quoted and comma-joined
func citations(violations []models.ViolationMatch) []models.CitationEntry {
	var order []string
	matched := make(map[string][]string)
	first := make(map[string]models.ViolationMatch)

	for _, v := range violations {
		if _, seen := first[v.RuleID]; !seen {
			order = append(order, v.RuleID)
			first[v.RuleID] = v
		}
		matched[v.RuleID] = append(matched[v.RuleID], fmt.Sprintf("%q", v.MatchedText))
	}

	entries := make([]models.CitationEntry, 0, len(order))
	for _, id := range order {
		v := first[id]
		entries = append(entries, models.CitationEntry{
			RuleID:         id,
			RuleTitle:      v.RuleTitle,
			SourceDocument: v.Citation.SourceDocument,
			Section:        v.Citation.Section,
			Date:           v.Citation.Date,
			URL:            v.Citation.URL,
			MatchedTexts:   strings.Join(matched[id], ", "),
		})
	}
	return entries
}
