package models

// Span marks a matched region as byte offsets into the source text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ViolationMatch is a concrete match of text against a rule. Matches are
// created by the detector and never mutated afterwards; rule fields needed
// downstream are copied in rather than referenced.
type ViolationMatch struct {
	RuleID      string        `json:"rule_id"`
	RuleTitle   string        `json:"rule_title"`
	Category    string        `json:"category"`
	Kind        ViolationKind `json:"kind"`
	MatchedText string        `json:"matched_text"`
	Span        Span          `json:"span"`
	Context     string        `json:"context"`
	Confidence  float64       `json:"confidence"`
	Severity    Severity      `json:"severity"`
	Impact      float64       `json:"impact"` // signed, negative
	Citation    Citation      `json:"citation"`
}

// MissingElement records a required element absent from the text,
// annotated with the rule that requires it
type MissingElement struct {
	Element   string `json:"element"`
	RuleTitle string `json:"rule_title"`
}

// AnalysisMetadata carries measurement data about one detector run
type AnalysisMetadata struct {
	TextLength int       `json:"text_length"`
	RuleCount  int       `json:"rule_count"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// ComplianceAnalysis is the aggregate detector output: raw findings before
// scoring and augmentation. Violations are ordered by severity rank
// descending, then confidence descending.
type ComplianceAnalysis struct {
	OverallScore       float64          `json:"overall_score"`
	Level              ComplianceLevel  `json:"level"`
	Violations         []ViolationMatch `json:"violations"`
	MissingElements    []MissingElement `json:"missing_elements"`
	MissingDisclaimers []string         `json:"missing_disclaimers"`
	RulesApplied       []string         `json:"rules_applied"`
	Metadata           AnalysisMetadata `json:"metadata"`
}

// CriticalCount returns the number of critical violations
func (a *ComplianceAnalysis) CriticalCount() int {
	return a.countBySeverity(SeverityCritical)
}

// HighCount returns the number of high-severity violations
func (a *ComplianceAnalysis) HighCount() int {
	return a.countBySeverity(SeverityHigh)
}

func (a *ComplianceAnalysis) countBySeverity(s Severity) int {
	n := 0
	for _, v := range a.Violations {
		if v.Severity == s {
			n++
		}
	}
	return n
}
