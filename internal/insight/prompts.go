package insight

import (
	"fmt"
	"strings"

	"github.com/promoguard/promoscan/internal/models"
)

const analysisSystemPrompt = "You are a marketing compliance reviewer for regulated financial products. " +
	"Evaluate promotional copy against the supplied guidelines. " +
	"Always respond with ONLY a valid JSON object, no markdown, no commentary."

const rewriteSystemPrompt = "You are a marketing copywriter specialized in regulated financial products. " +
	"Rewrite promotional copy to be fully compliant while keeping it persuasive. " +
	"Always respond with ONLY a valid JSON object, no markdown, no commentary."

// buildAnalysisPrompt assembles the structured-output analysis request
func buildAnalysisPrompt(text string, rules []models.Rule, violations []models.ViolationMatch) string {
	return fmt.Sprintf(`Analyze this marketing text for regulatory compliance:

**Marketing Text:**
%s

**Applicable Guidelines:**
%s

**Violations already found by rule-based scanning:**
%s

Respond with ONLY a valid JSON object with this exact structure:
{
  "compliance_score": number between 0 and 100,
  "overall_status": "compliant" | "needs_review" | "non_compliant",
  "violations": [
    {
      "text": "the offending text",
      "category": "guideline category",
      "severity": "critical" | "high" | "medium" | "low",
      "explanation": "why this violates the guideline",
      "suggested_fix": "compliant replacement wording",
      "confidence": number between 0.0 and 1.0
    }
  ],
  "contextual_insights": ["observations the keyword scan cannot make"],
  "tone_assessment": {
    "label": "appropriate" | "aggressive" | "misleading" | "concerning",
    "appropriate": boolean,
    "suggestions": ["tone improvements"]
  }
}

Focus on context the keyword scan misses: implied claims, omitted qualifiers, misleading framing.`,
		text, formatRules(rules), formatViolations(violations))
}

// buildRewritePrompt assembles the full-rewrite request
func buildRewritePrompt(text string, violations []models.ViolationMatch) string {
	return fmt.Sprintf(`Rewrite this marketing text to resolve every compliance violation:

**Original Text:**
%s

**Violations to resolve:**
%s

Requirements: keep the marketing intent, qualify absolute claims, add nothing untrue.

Respond with ONLY a valid JSON object with this exact structure:
{
  "rewritten_text": "the full compliant rewrite",
  "changes": [
    {
      "original": "text that was changed",
      "revised": "what it became",
      "reason": "which problem this resolves"
    }
  ]
}`,
		text, formatViolations(violations))
}

func formatRules(rules []models.Rule) string {
	if len(rules) == 0 {
		return "- (none supplied)"
	}
	var b strings.Builder
	for _, rule := range rules {
		fmt.Fprintf(&b, "- [%s] %s (%s): %s\n", rule.ID, rule.Title, rule.Severity, rule.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatViolations(violations []models.ViolationMatch) string {
	if len(violations) == 0 {
		return "- (none)"
	}
	var b strings.Builder
	for _, v := range violations {
		fmt.Fprintf(&b, "- [%s] %q violates %s (%s)\n", v.Severity, v.MatchedText, v.RuleID, v.Kind)
	}
	return strings.TrimRight(b.String(), "\n")
}
