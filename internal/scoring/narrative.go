package scoring

import (
	"fmt"
	"strings"

	"github.com/promoguard/promoscan/internal/models"
)

// categoryAdvice maps violated rule categories to canned remediation
// messages. Unlisted categories fall back to a generic line.
var categoryAdvice = map[string]string{
	"interest_rate_disclosure": "Disclose the annual percentage rate wherever pricing or interest is mentioned",
	"approval_claims":          "Replace unconditional approval language with eligibility-qualified wording",
	"fee_transparency":         "State all processing fees and charges alongside the offer",
	"grievance_redressal":      "Include the grievance redressal contact details in the creative",
	"urgency_marketing":        "Remove urgency pressure tactics and let the offer stand on its terms",
}

// urgencyLines prefix the recommendation list with one risk-tier line
var urgencyLines = map[models.RiskLevel]string{
	models.RiskCritical: "URGENT: suspend this campaign until all critical violations are resolved",
	models.RiskHigh:     "HIGH PRIORITY: revise the flagged claims before further distribution",
	models.RiskMedium:   "Address the flagged violations before the next release cycle",
	models.RiskLow:      "Content is close to compliant; complete the standard review before publishing",
}

// recommendations builds the free-text recommendation list: one urgency
// line for the risk tier plus one canned message per violated category,
// deduplicated in order
func recommendations(analysis *models.ComplianceAnalysis, risk models.RiskLevel) []string {
	lines := []string{urgencyLines[risk]}

	for _, v := range analysis.Violations {
		if advice, ok := categoryAdvice[v.Category]; ok {
			lines = append(lines, advice)
		} else {
			lines = append(lines, fmt.Sprintf("Review %s content against the cited guideline", strings.ReplaceAll(v.Category, "_", " ")))
		}
	}
	if len(analysis.MissingElements) > 0 {
		lines = append(lines, "Add every missing required element before resubmitting for review")
	}
	if len(analysis.MissingDisclaimers) > 0 {
		lines = append(lines, "Append the required disclaimers to the end of the copy")
	}

	return dedupe(lines)
}

// summarize produces the narrative wrap-up: key findings, a one-line risk
// assessment and next steps gated on the score
func summarize(breakdown models.ScoreBreakdown, analysis *models.ComplianceAnalysis) models.ReportSummary {
	findings := []string{
		fmt.Sprintf("Compliance score %.1f/100 (%s)", breakdown.TotalScore, breakdown.Level),
	}
	if c := analysis.CriticalCount(); c > 0 {
		findings = append(findings, fmt.Sprintf("%d critical violation(s) require immediate attention", c))
	}
	if h := analysis.HighCount(); h > 0 {
		findings = append(findings, fmt.Sprintf("%d high-severity violation(s) found", h))
	}
	if m := len(analysis.MissingElements); m > 0 {
		findings = append(findings, fmt.Sprintf("%d required element(s) missing from the copy", m))
	}

	var steps []string
	if breakdown.TotalScore < 80 {
		steps = []string{
			"Apply the recommended fixes to all flagged text",
			"Add the missing required elements and disclaimers",
			"Re-run the compliance analysis after revision",
			"Obtain compliance sign-off before publishing",
		}
	} else {
		steps = []string{
			"Complete the standard pre-publication checklist",
			"Archive this report with the campaign records",
		}
	}

	return models.ReportSummary{
		KeyFindings:    findings,
		RiskAssessment: riskAssessment(breakdown.Risk.Level),
		NextSteps:      steps,
	}
}

func riskAssessment(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return "Critical regulatory exposure: publishing this content as-is risks enforcement action."
	case models.RiskHigh:
		return "High regulatory exposure: multiple serious violations need resolution before launch."
	case models.RiskMedium:
		return "Moderate regulatory exposure: the flagged issues are fixable with targeted edits."
	default:
		return "Low regulatory exposure: no significant compliance concerns were identified."
	}
}

// dedupe removes duplicate lines while preserving first-seen order
func dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
