package models

import "time"

// AnalysisResult is the full pipeline output for one text: the scored
// report plus model insights and the remediation package. This is also the
// value cached between identical requests.
type AnalysisResult struct {
	ID              string           `json:"id"`
	Report          ComplianceReport `json:"report"`
	Insights        ModelInsights    `json:"insights"`
	Recommendations Recommendations  `json:"recommendations"`
	CacheUsed       bool             `json:"cache_used"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
	ElapsedMs       int64            `json:"elapsed_ms"`
}

// QuickCheckResult is the low-latency screening result: rule-based stage
// only, capped at the five most serious violations
type QuickCheckResult struct {
	Score         float64          `json:"score"`
	RiskLevel     RiskLevel        `json:"risk_level"`
	TopViolations []ViolationMatch `json:"top_violations"`
	ElapsedMs     int64            `json:"elapsed_ms"`
}

// BatchItem is one entry in a batch analysis request
type BatchItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// BatchResult is the outcome for one batch item. Exactly one of Result
// and Error is meaningful; a failed item never aborts its siblings.
type BatchResult struct {
	ID     string          `json:"id"`
	Result *AnalysisResult `json:"result"`
	Error  string          `json:"error,omitempty"`
}
