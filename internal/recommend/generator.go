package recommend

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// superlatives and urgencyPhrases are the lexical signals behind tone
// adjustments, checked against the lowercased text
var superlatives = []string{"best", "lowest", "highest", "cheapest", "unbeatable", "#1", "number one"}

var urgencyPhrases = []string{"limited time", "act now", "hurry", "today only", "last chance", "don't miss", "easy cash", "quick cash"}

// baselineChecklist items apply to every piece of marketing copy
var baselineChecklist = []string{
	"All claims are accurate and verifiable",
	"Qualifying conditions appear alongside each offer",
	"Required disclaimers are present and legible",
	"Contact and grievance details are included",
}

// categoryChecklist items activate when a category was violated
var categoryChecklist = map[string]string{
	"interest_rate_disclosure": "APR is stated wherever a rate or price appears",
	"approval_claims":          "No unconditional approval or acceptance promises remain",
	"fee_transparency":         "Every fee and charge is itemized",
	"grievance_redressal":      "Grievance redressal contact is current and reachable",
	"urgency_marketing":        "No countdown or scarcity pressure remains",
}

// Generator synthesizes the remediation package from rule-based findings
// and model insights
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new recommendation generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate builds fixes, required additions, tone adjustments, alternative
// copies and a checklist for the analyzed text
func (g *Generator) Generate(text string, analysis *models.ComplianceAnalysis, insights *models.ModelInsights, rewrite *models.RewriteResult) *models.Recommendations {
	recs := &models.Recommendations{
		OverallApproach:   overallApproach(analysis),
		Fixes:             g.fixes(analysis.Violations),
		RequiredAdditions: additions(analysis.MissingElements),
		ToneAdjustments:   toneAdjustments(text, insights),
		Alternatives:      alternatives(text, analysis.Violations, rewrite),
		Checklist:         checklist(analysis),
	}

	g.logger.Debug("Recommendations generated",
		zap.Int("fixes", len(recs.Fixes)),
		zap.Int("additions", len(recs.RequiredAdditions)),
		zap.Int("alternatives", len(recs.Alternatives)))
	return recs
}

// overallApproach picks the narrative by a severity-count ladder
func overallApproach(analysis *models.ComplianceAnalysis) string {
	switch {
	case analysis.CriticalCount() > 0:
		return "Immediate action required: critical regulatory violations must be resolved before this content is used anywhere."
	case analysis.HighCount() > 2:
		return "Significant revision needed: multiple serious violations call for a structural rewrite of the copy."
	case len(analysis.Violations) > 0:
		return "Moderate improvements needed: targeted edits will bring this content into compliance."
	default:
		return "Minor enhancements only: the content is broadly compliant; review the checklist before publishing."
	}
}

// fixes builds one replacement suggestion per distinct flagged phrase.
// Violations arrive sorted by severity, so keeping the first occurrence
// keeps the highest-priority framing for repeated phrases.
func (g *Generator) fixes(violations []models.ViolationMatch) []models.Fix {
	seen := make(map[string]bool)
	var fixes []models.Fix
	for _, v := range violations {
		key := strings.ToLower(v.MatchedText)
		if seen[key] {
			continue
		}
		seen[key] = true
		fixes = append(fixes, fixFor(v))
	}
	return fixes
}

// fixFor dispatches by violation kind to build one fix
func fixFor(v models.ViolationMatch) models.Fix {
	repl, found := findReplacement(v.MatchedText)

	suggested := v.MatchedText + qualifyingSuffix
	reason := "No direct replacement known; the claim was qualified instead"
	if found {
		suggested = repl.conservative
		reason = repl.reason
	}
	if v.Kind == models.KindProhibitedClaim {
		reason = "Prohibited claim: " + lowerFirst(reason)
	}

	return models.Fix{
		OriginalText:  v.MatchedText,
		SuggestedText: suggested,
		Reason:        reason,
		Citation:      citationLine(v.Citation),
		Priority:      v.Severity,
		Difficulty:    difficultyFor(v.Kind, found),
		Impact:        impactFor(v),
	}
}

func difficultyFor(kind models.ViolationKind, hasReplacement bool) string {
	switch {
	case kind == models.KindProhibitedClaim:
		return models.DifficultyModerate
	case hasReplacement:
		return models.DifficultyEasy
	default:
		return models.DifficultyModerate
	}
}

func impactFor(v models.ViolationMatch) string {
	switch {
	case v.Kind == models.KindProhibitedClaim || v.Severity == models.SeverityCritical:
		return models.ImpactSignificant
	case v.Severity == models.SeverityHigh:
		return models.ImpactModerate
	default:
		return models.ImpactMinimal
	}
}

func citationLine(c models.Citation) string {
	if c.SourceDocument == "" {
		return ""
	}
	if c.Section == "" {
		return c.SourceDocument
	}
	return fmt.Sprintf("%s, section %s", c.SourceDocument, c.Section)
}

// additions builds one suggested addition per distinct missing element
func additions(missing []models.MissingElement) []models.RequiredAddition {
	seen := make(map[string]bool)
	var out []models.RequiredAddition
	for _, m := range missing {
		key := strings.ToLower(m.Element)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, additionFor(m))
	}
	return out
}

// toneAdjustments derives suggestions from lexical signals in the text,
// merged with the model's tone suggestions when it flagged the tone
func toneAdjustments(text string, insights *models.ModelInsights) []string {
	lower := strings.ToLower(text)
	var out []string

	if strings.Count(text, "!") > 1 {
		out = append(out, "Reduce exclamation marks; one is enough to carry emphasis")
	}
	for _, s := range superlatives {
		if strings.Contains(lower, s) {
			out = append(out, "Replace superlatives with verifiable, specific statements")
			break
		}
	}
	for _, u := range urgencyPhrases {
		if strings.Contains(lower, u) {
			out = append(out, "Remove urgency pressure phrases; rushed-decision framing attracts regulatory scrutiny")
			break
		}
	}

	if insights != nil && !insights.Tone.Appropriate {
		out = append(out, insights.Tone.Suggestions...)
	}
	return dedupe(out)
}

// alternatives builds the graded rewrite versions. The AI-enhanced version
// is only offered when the model rewrite actually succeeded.
func alternatives(text string, violations []models.ViolationMatch, rewrite *models.RewriteResult) []models.AlternativeCopy {
	out := []models.AlternativeCopy{
		{
			Label:             models.AlternativeConservative,
			Text:              rewriteWith(text, violations, func(r replacement) string { return r.conservative }),
			MarketingStrength: "reduced",
			RiskLevel:         models.RiskLow,
		},
		{
			Label:             models.AlternativeBalanced,
			Text:              rewriteWith(text, violations, func(r replacement) string { return r.balanced }),
			MarketingStrength: "moderate",
			RiskLevel:         models.RiskMedium,
		},
	}
	if rewrite != nil && !rewrite.Fallback && strings.TrimSpace(rewrite.RewrittenText) != "" {
		out = append(out, models.AlternativeCopy{
			Label:             models.AlternativeAIEnhanced,
			Text:              rewrite.RewrittenText,
			MarketingStrength: "strong",
			RiskLevel:         models.RiskLow,
		})
	}
	return out
}

// rewriteWith replaces every distinct flagged phrase in the text using the
// chosen replacement flavor, falling back to a qualifying suffix
func rewriteWith(text string, violations []models.ViolationMatch, pick func(replacement) string) string {
	seen := make(map[string]bool)
	result := text
	for _, v := range violations {
		key := strings.ToLower(v.MatchedText)
		if seen[key] || v.MatchedText == "" {
			continue
		}
		seen[key] = true

		repl, found := findReplacement(v.MatchedText)
		if found {
			result = strings.ReplaceAll(result, v.MatchedText, pick(repl))
		} else {
			result = strings.ReplaceAll(result, v.MatchedText, v.MatchedText+qualifyingSuffix)
		}
	}
	return result
}

// checklist mixes baseline items with category-conditional items and a
// missing-elements summary line
func checklist(analysis *models.ComplianceAnalysis) []string {
	items := make([]string, 0, len(baselineChecklist)+len(analysis.Violations)+1)
	items = append(items, baselineChecklist...)

	for _, v := range analysis.Violations {
		if item, ok := categoryChecklist[v.Category]; ok {
			items = append(items, item)
		}
	}

	if len(analysis.MissingElements) > 0 {
		elements := make([]string, 0, len(analysis.MissingElements))
		for _, m := range analysis.MissingElements {
			elements = append(elements, m.Element)
		}
		items = append(items, "Add missing elements: "+strings.Join(dedupe(elements), "; "))
	}

	return dedupe(items)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
