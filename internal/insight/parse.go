package insight

import (
	"encoding/json"
	"strings"

	"github.com/promoguard/promoscan/internal/models"
)

// analysisPayload mirrors the JSON shape requested from the model. Every
// field is optional; validation and clamping happen field by field so one
// malformed field never discards the rest of the response.
type analysisPayload struct {
	ComplianceScore    *float64           `json:"compliance_score"`
	OverallStatus      string             `json:"overall_status"`
	Violations         []violationPayload `json:"violations"`
	ContextualInsights []string           `json:"contextual_insights"`
	ToneAssessment     *tonePayload       `json:"tone_assessment"`
}

type violationPayload struct {
	Text         string   `json:"text"`
	Category     string   `json:"category"`
	Severity     string   `json:"severity"`
	Explanation  string   `json:"explanation"`
	SuggestedFix string   `json:"suggested_fix"`
	Confidence   *float64 `json:"confidence"`
}

type tonePayload struct {
	Label       string   `json:"label"`
	Appropriate *bool    `json:"appropriate"`
	Suggestions []string `json:"suggestions"`
}

type rewritePayload struct {
	RewrittenText string `json:"rewritten_text"`
	Changes       []struct {
		Original string `json:"original"`
		Revised  string `json:"revised"`
		Reason   string `json:"reason"`
	} `json:"changes"`
}

// extractJSON returns the first balanced brace-delimited JSON object in
// the content. Models often wrap their JSON in prose or markdown fences;
// brace counting honors string literals and escape sequences.
func extractJSON(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return content[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// parseAnalysis decodes and sanitizes a model analysis reply. A reply with
// no parseable JSON object returns false and the caller falls back.
func parseAnalysis(content string) (*models.ModelInsights, bool) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, false
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}

	insights := &models.ModelInsights{
		Score:              clampScore(payload.ComplianceScore),
		OverallStatus:      statusOrDefault(payload.OverallStatus),
		Violations:         sanitizeViolations(payload.Violations),
		ContextualInsights: nonEmpty(payload.ContextualInsights),
		Tone:               sanitizeTone(payload.ToneAssessment),
	}
	return insights, true
}

// parseRewrite decodes and sanitizes a model rewrite reply
func parseRewrite(content string) (*models.RewriteResult, bool) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, false
	}

	var payload rewritePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}
	if strings.TrimSpace(payload.RewrittenText) == "" {
		return nil, false
	}

	result := &models.RewriteResult{
		RewrittenText: payload.RewrittenText,
	}
	for _, c := range payload.Changes {
		if c.Original == "" && c.Revised == "" {
			continue
		}
		result.Changes = append(result.Changes, models.RewriteChange{
			Original: c.Original,
			Revised:  c.Revised,
			Reason:   c.Reason,
		})
	}
	return result, true
}

func clampScore(score *float64) float64 {
	if score == nil {
		return 50
	}
	if *score < 0 {
		return 0
	}
	if *score > 100 {
		return 100
	}
	return *score
}

func statusOrDefault(status string) models.ComplianceLevel {
	level := models.ComplianceLevel(strings.ToLower(strings.TrimSpace(status)))
	if level.Valid() {
		return level
	}
	return models.LevelNeedsReview
}

func sanitizeViolations(payloads []violationPayload) []models.ModelViolation {
	var out []models.ModelViolation
	for _, p := range payloads {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		severity := models.Severity(strings.ToLower(strings.TrimSpace(p.Severity)))
		if !severity.Valid() {
			severity = models.SeverityMedium
		}
		out = append(out, models.ModelViolation{
			Text:         p.Text,
			Category:     p.Category,
			Severity:     severity,
			Explanation:  p.Explanation,
			SuggestedFix: p.SuggestedFix,
			Confidence:   clampConfidence(p.Confidence),
		})
	}
	return out
}

func clampConfidence(confidence *float64) float64 {
	if confidence == nil {
		return 0.5
	}
	if *confidence < 0 {
		return 0
	}
	if *confidence > 1 {
		return 1
	}
	return *confidence
}

func sanitizeTone(payload *tonePayload) models.ToneAssessment {
	if payload == nil {
		return models.ToneAssessment{Label: "neutral", Appropriate: true}
	}
	label := strings.ToLower(strings.TrimSpace(payload.Label))
	if label == "" {
		label = "neutral"
	}
	appropriate := true
	if payload.Appropriate != nil {
		appropriate = *payload.Appropriate
	}
	return models.ToneAssessment{
		Label:       label,
		Appropriate: appropriate,
		Suggestions: nonEmpty(payload.Suggestions),
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
