package models

// Severity classifies how serious a rule violation is
type Severity string

// Severity levels, ordered critical > high > medium > low
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the ordering weight of a severity so comparisons are a
// single integer compare. Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// ComplianceLevel is the coarse bucket derived from a score
type ComplianceLevel string

// Compliance levels
const (
	LevelCompliant    ComplianceLevel = "compliant"
	LevelNeedsReview  ComplianceLevel = "needs_review"
	LevelNonCompliant ComplianceLevel = "non_compliant"
)

// Valid reports whether l is a known compliance level
func (l ComplianceLevel) Valid() bool {
	switch l {
	case LevelCompliant, LevelNeedsReview, LevelNonCompliant:
		return true
	}
	return false
}

// RiskLevel is the escalation tier derived from violation severities and
// counts. Distinct from ComplianceLevel.
type RiskLevel string

// Risk levels
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ViolationKind identifies what triggered a violation match
type ViolationKind string

// Violation kinds
const (
	KindKeywordViolation ViolationKind = "keyword_violation"
	KindProhibitedClaim  ViolationKind = "prohibited_claim"
	KindMissingElement   ViolationKind = "missing_required_element"
)

// Color codes for score presentation
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)
