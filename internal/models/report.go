package models

// RiskIndicators escalate through four tiers, each tier carrying the
// recommended immediate actions for that level of exposure
type RiskIndicators struct {
	Level            RiskLevel `json:"level"`
	Factors          []string  `json:"factors"`
	ImmediateActions []string  `json:"immediate_actions"`
}

// ScoreBreakdown is the detailed scoring view. Deduction totals are
// positive magnitudes grouped per severity; the prohibited-claim surcharge
// holds the extra half weight those matches carry. Category scores may go
// negative when deductions exceed a category's weight share - only
// TotalScore is clamped to [0,100].
type ScoreBreakdown struct {
	TotalScore               float64              `json:"total_score"`
	BaseScore                float64              `json:"base_score"`
	SeverityDeductions       map[Severity]float64 `json:"severity_deductions"`
	ProhibitedClaimSurcharge float64              `json:"prohibited_claim_surcharge"`
	MissingElementDeduction  float64              `json:"missing_element_deduction"`
	CategoryScores           map[string]float64   `json:"category_scores"`
	Level                    ComplianceLevel      `json:"level"`
	ColorCode                string               `json:"color_code"`
	Risk                     RiskIndicators       `json:"risk"`
}

// CitationEntry is one citation per violated rule, listing every matched
// text for that rule quoted and comma-joined
type CitationEntry struct {
	RuleID         string `json:"rule_id"`
	RuleTitle      string `json:"rule_title"`
	SourceDocument string `json:"source_document"`
	Section        string `json:"section"`
	Date           string `json:"date"`
	URL            string `json:"url,omitempty"`
	MatchedTexts   string `json:"matched_texts"`
}

// ReportSummary is the narrative wrap-up of a report
type ReportSummary struct {
	KeyFindings    []string `json:"key_findings"`
	RiskAssessment string   `json:"risk_assessment"`
	NextSteps      []string `json:"next_steps"`
}

// ComplianceReport is the scored, cited, summarized result of one
// analysis invocation. Reports are produced once and not mutated.
type ComplianceReport struct {
	Breakdown       ScoreBreakdown   `json:"breakdown"`
	Violations      []ViolationMatch `json:"violations"`
	MissingElements []MissingElement `json:"missing_elements"`
	Recommendations []string         `json:"recommendations"`
	Citations       []CitationEntry  `json:"citations"`
	Summary         ReportSummary    `json:"summary"`
}
