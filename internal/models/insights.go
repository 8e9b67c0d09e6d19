package models

// ModelViolation is a violation identified by the external text-analysis
// model, with its explanation and suggested fix
type ModelViolation struct {
	Text         string   `json:"text"`
	Category     string   `json:"category"`
	Severity     Severity `json:"severity"`
	Explanation  string   `json:"explanation"`
	SuggestedFix string   `json:"suggested_fix"`
	Confidence   float64  `json:"confidence"`
}

// ToneAssessment is the model's judgement of the copy's tone
type ToneAssessment struct {
	Label       string   `json:"label"`
	Appropriate bool     `json:"appropriate"`
	Suggestions []string `json:"suggestions"`
}

// ModelInsights carries everything the external model contributed to an
// analysis. It is always populated: when the model call fails the adapter
// substitutes a conservative fallback and sets Fallback.
type ModelInsights struct {
	Score              float64          `json:"score"`
	OverallStatus      ComplianceLevel  `json:"overall_status"`
	Violations         []ModelViolation `json:"violations"`
	ContextualInsights []string         `json:"contextual_insights"`
	Tone               ToneAssessment   `json:"tone"`
	Fallback           bool             `json:"fallback"`
}

// RewriteChange is one before/after item from the model rewrite
type RewriteChange struct {
	Original string `json:"original"`
	Revised  string `json:"revised"`
	Reason   string `json:"reason"`
}

// RewriteResult is the model's full rewritten version of the text. On
// failure the adapter returns the original text unchanged with Fallback
// set, and downstream consumers skip the AI-enhanced alternative.
type RewriteResult struct {
	RewrittenText string          `json:"rewritten_text"`
	Changes       []RewriteChange `json:"changes"`
	Fallback      bool            `json:"fallback"`
}
