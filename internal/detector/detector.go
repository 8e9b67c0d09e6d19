package detector

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// prohibitedClaimWeight scales the deduction of prohibited-claim matches
// relative to keyword violations of the same severity
const prohibitedClaimWeight = 1.5

// RuleSource is the slice of the guideline repository the detector needs
type RuleSource interface {
	CachedRules() []models.Rule
	ByContext(contextString string) []models.Rule
	ByKeywords(words []string) []models.Rule
	Set() *models.GuidelineSet
}

// Detector matches marketing text against the guideline corpus and
// produces raw rule-based findings
type Detector struct {
	rules  RuleSource
	logger *zap.Logger
}

// NewDetector creates a new violation detector
func NewDetector(rules RuleSource, logger *zap.Logger) *Detector {
	return &Detector{
		rules:  rules,
		logger: logger,
	}
}

// Analyze scans the text against applicable rules and returns the
// aggregate findings with a preliminary score and risk level
func (d *Detector) Analyze(ctx context.Context, text, marketingContext string) (*models.ComplianceAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	rules := d.applicableRules(text, marketingContext)
	lower := strings.ToLower(text)

	var violations []models.ViolationMatch
	var missing []models.MissingElement
	applied := make([]string, 0, len(rules))

	methodology := d.rules.Set().Methodology
	for _, rule := range rules {
		applied = append(applied, rule.ID)
		violations = append(violations, d.scanRule(text, lower, rule, methodology)...)
		missing = append(missing, missingElements(lower, rule)...)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Severity.Rank() != violations[j].Severity.Rank() {
			return violations[i].Severity.Rank() > violations[j].Severity.Rank()
		}
		return violations[i].Confidence > violations[j].Confidence
	})

	disclaimers := missingDisclaimers(lower, d.rules.Set().Patterns.RequiredDisclaimers)
	score := overallScore(methodology, violations, len(missing))

	analysis := &models.ComplianceAnalysis{
		OverallScore:       score,
		Level:              methodology.LevelFor(score),
		Violations:         violations,
		MissingElements:    missing,
		MissingDisclaimers: disclaimers,
		RulesApplied:       applied,
		Metadata: models.AnalysisMetadata{
			TextLength: len(text),
			RuleCount:  len(rules),
			ElapsedMs:  time.Since(start).Milliseconds(),
			RiskLevel:  riskFor(violations),
		},
	}

	d.logger.Debug("Rule-based analysis completed",
		zap.Int("rules_applied", len(rules)),
		zap.Int("violations", len(violations)),
		zap.Int("missing_elements", len(missing)),
		zap.Float64("score", score),
		zap.String("risk", string(analysis.Metadata.RiskLevel)))

	return analysis, nil
}

// applicableRules selects the rules to scan: all rules when no marketing
// context is given, otherwise the union of context-matched rules and
// rules triggered by the text's significant tokens
func (d *Detector) applicableRules(text, marketingContext string) []models.Rule {
	if strings.TrimSpace(marketingContext) == "" {
		return d.rules.CachedRules()
	}

	byContext := d.rules.ByContext(marketingContext)
	byKeyword := d.rules.ByKeywords(significantTokens(text))

	seen := make(map[string]bool, len(byContext)+len(byKeyword))
	rules := make([]models.Rule, 0, len(byContext)+len(byKeyword))
	for _, rule := range byContext {
		if !seen[rule.ID] {
			seen[rule.ID] = true
			rules = append(rules, rule)
		}
	}
	for _, rule := range byKeyword {
		if !seen[rule.ID] {
			seen[rule.ID] = true
			rules = append(rules, rule)
		}
	}
	return rules
}

// scanRule finds every keyword and prohibited-claim occurrence of one rule
func (d *Detector) scanRule(text, lower string, rule models.Rule, methodology models.ScoringMethodology) []models.ViolationMatch {
	deduction := methodology.DeductionFor(rule.Severity)

	var matches []models.ViolationMatch
	for _, keyword := range rule.ViolationKeywords {
		matches = append(matches, matchPhrase(text, lower, rule, keyword, models.KindKeywordViolation, deduction)...)
	}
	for _, claim := range rule.ProhibitedClaims {
		matches = append(matches, matchPhrase(text, lower, rule, claim, models.KindProhibitedClaim, deduction*prohibitedClaimWeight)...)
	}
	return matches
}

// matchPhrase records a ViolationMatch for every occurrence of the phrase
func matchPhrase(text, lower string, rule models.Rule, phrase string, kind models.ViolationKind, impact float64) []models.ViolationMatch {
	needle := strings.ToLower(phrase)
	starts := phraseStarts(lower, needle)
	if len(starts) == 0 {
		return nil
	}

	matches := make([]models.ViolationMatch, 0, len(starts))
	for _, start := range starts {
		end := start + len(needle)
		if end > len(text) {
			end = len(text)
		}
		matched := text[start:end]
		matches = append(matches, models.ViolationMatch{
			RuleID:      rule.ID,
			RuleTitle:   rule.Title,
			Category:    rule.Category,
			Kind:        kind,
			MatchedText: matched,
			Span:        models.Span{Start: start, End: end},
			Context:     contextWindow(text, start, end),
			Confidence:  confidenceFor(matched, needle),
			Severity:    rule.Severity,
			Impact:      impact,
			Citation:    rule.Citation,
		})
	}
	return matches
}

// confidenceFor grades a match: exact case-insensitive equality scores
// 1.0, anything else scores its edit-distance similarity floored at 0.5
func confidenceFor(matched, needle string) float64 {
	if strings.ToLower(matched) == needle {
		return 1.0
	}
	sim := similarity(strings.ToLower(matched), needle)
	if sim < 0.5 {
		return 0.5
	}
	return sim
}

// missingElements reports the rule's required elements absent from the
// text, consulting the synonym table for equivalent phrasings
func missingElements(lower string, rule models.Rule) []models.MissingElement {
	var missing []models.MissingElement
	for _, element := range rule.RequiredElements {
		if !elementPresent(lower, element) {
			missing = append(missing, models.MissingElement{
				Element:   element,
				RuleTitle: rule.Title,
			})
		}
	}
	return missing
}

// missingDisclaimers reports required disclaimers absent from the text,
// independent of which rules were selected
func missingDisclaimers(lower string, required []string) []string {
	var missing []string
	for _, disclaimer := range required {
		if !elementPresent(lower, disclaimer) {
			missing = append(missing, disclaimer)
		}
	}
	return missing
}

// overallScore applies the methodology to the findings and clamps the
// result to [0,100]
func overallScore(m models.ScoringMethodology, violations []models.ViolationMatch, missingCount int) float64 {
	score := m.BaseScore
	for _, v := range violations {
		score += v.Impact
	}
	score += float64(missingCount) * m.MissingElementPenalty

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// riskFor derives the preliminary risk level from violation severities.
// Critical findings cap out at high here; the scorer's indicator tiers
// handle the critical escalation.
func riskFor(violations []models.ViolationMatch) models.RiskLevel {
	var critical, high int
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
	}

	switch {
	case critical > 0:
		return models.RiskHigh
	case high > 2:
		return models.RiskHigh
	case high > 0 || len(violations) > 3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
