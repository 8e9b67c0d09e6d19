package models

// Fix difficulty estimates
const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyInvolved = "involved"
)

// Marketing impact estimates
const (
	ImpactMinimal     = "minimal"
	ImpactModerate    = "moderate"
	ImpactSignificant = "significant"
)

// Alternative copy labels
const (
	AlternativeConservative = "conservative"
	AlternativeBalanced     = "balanced"
	AlternativeAIEnhanced   = "ai_enhanced"
)

// Fix is one concrete replacement suggestion for a violation
type Fix struct {
	OriginalText  string   `json:"original_text"`
	SuggestedText string   `json:"suggested_text"`
	Reason        string   `json:"reason"`
	Citation      string   `json:"citation"`
	Priority      Severity `json:"priority"`
	Difficulty    string   `json:"difficulty"`
	Impact        string   `json:"marketing_impact"`
}

// RequiredAddition is content that must be added to the copy to satisfy a
// missing required element
type RequiredAddition struct {
	Element       string `json:"element"`
	SuggestedText string `json:"suggested_text"`
	Placement     string `json:"placement"`
	Reference     string `json:"regulatory_reference"`
}

// AlternativeCopy is one rewritten version of the full text, graded by
// marketing strength and residual risk
type AlternativeCopy struct {
	Label             string    `json:"label"`
	Text              string    `json:"text"`
	MarketingStrength string    `json:"marketing_strength"`
	RiskLevel         RiskLevel `json:"risk_level"`
}

// Recommendations is the full remediation package for one analysis
type Recommendations struct {
	OverallApproach   string             `json:"overall_approach"`
	Fixes             []Fix              `json:"fixes"`
	RequiredAdditions []RequiredAddition `json:"required_additions"`
	ToneAdjustments   []string           `json:"tone_adjustments"`
	Alternatives      []AlternativeCopy  `json:"alternatives"`
	Checklist         []string           `json:"checklist"`
}
