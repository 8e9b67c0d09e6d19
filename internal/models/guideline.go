package models

// Citation points at the regulatory source backing a rule
type Citation struct {
	SourceDocument string `json:"source_document"`
	Section        string `json:"section"`
	Date           string `json:"date"`
	URL            string `json:"url,omitempty"`
}

// Rule is a single regulatory requirement with matchable keywords and
// claims. Rules are immutable once loaded.
type Rule struct {
	ID                string   `json:"id"`
	Category          string   `json:"category"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ApplicableContext string   `json:"applicable_context"`
	ViolationKeywords []string `json:"violation_keywords"`
	RequiredElements  []string `json:"required_elements"`
	ProhibitedClaims  []string `json:"prohibited_marketing_claims"`
	Severity          Severity `json:"severity"`
	Weight            float64  `json:"weight"`
	Citation          Citation `json:"citation"`
}

// CorpusMetadata describes the guideline corpus version
type CorpusMetadata struct {
	Version    string `json:"version"`
	TotalRules int    `json:"total_rules"`
	Source     string `json:"source,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// ViolationPatterns holds phrase lists applied independently of rule
// selection
type ViolationPatterns struct {
	HighRiskPhrases     []string `json:"high_risk_phrases"`
	MediumRiskPhrases   []string `json:"medium_risk_phrases"`
	RequiredDisclaimers []string `json:"required_disclaimers"`
}

// ScoringMethodology configures how findings are converted into a score.
// Deductions and the missing-element penalty are signed negative values.
type ScoringMethodology struct {
	BaseScore             float64              `json:"base_score"`
	SeverityDeductions    map[Severity]float64 `json:"severity_deductions"`
	MissingElementPenalty float64              `json:"missing_element_penalty"`
	CategoryWeights       map[string]float64   `json:"category_weights"`
	CompliantThreshold    float64              `json:"compliant_threshold"`
	ReviewThreshold       float64              `json:"review_threshold"`
}

// DeductionFor returns the signed deduction configured for a severity.
// Unknown severities deduct nothing.
func (m ScoringMethodology) DeductionFor(s Severity) float64 {
	if m.SeverityDeductions == nil {
		return 0
	}
	return m.SeverityDeductions[s]
}

// LevelFor maps a score to its compliance level. The detector and the
// scorer both derive levels through this method so the two layers cannot
// drift apart.
func (m ScoringMethodology) LevelFor(score float64) ComplianceLevel {
	switch {
	case score >= m.CompliantThreshold:
		return LevelCompliant
	case score >= m.ReviewThreshold:
		return LevelNeedsReview
	default:
		return LevelNonCompliant
	}
}

// ColorFor maps a score to its presentation color using the same
// thresholds as LevelFor
func (m ScoringMethodology) ColorFor(score float64) string {
	switch {
	case score >= m.CompliantThreshold:
		return ColorGreen
	case score >= m.ReviewThreshold:
		return ColorYellow
	default:
		return ColorRed
	}
}

// GuidelineSet is the full versioned corpus of rules plus scoring
// configuration. It is loaded once at startup and owned by the guideline
// repository; reloads replace the whole set.
type GuidelineSet struct {
	Metadata    CorpusMetadata     `json:"metadata"`
	Guidelines  map[string][]Rule  `json:"guidelines"`
	Patterns    ViolationPatterns  `json:"violation_patterns"`
	Methodology ScoringMethodology `json:"scoring_methodology"`
}

// RuleCount returns the number of rules across all categories
func (g *GuidelineSet) RuleCount() int {
	n := 0
	for _, rules := range g.Guidelines {
		n += len(rules)
	}
	return n
}
