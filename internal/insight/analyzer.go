package insight

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

var errNoChoices = errors.New("model returned no choices")

// maxResponseTokens bounds reply size; the structured JSON replies fit
// comfortably under this
const maxResponseTokens = 1200

// ChatClient is the slice of the OpenAI client the analyzer uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer augments rule-based findings with contextual judgement from an
// external text-analysis model. It never returns an error: any failure is
// absorbed into a conservative fallback so the pipeline always completes.
type Analyzer struct {
	client ChatClient
	model  string
	temp   float32
	logger *zap.Logger
}

// NewAnalyzer creates a new model augmentation adapter
func NewAnalyzer(client ChatClient, model string, temperature float32, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		model:  model,
		temp:   temperature,
		logger: logger,
	}
}

// Augment asks the model for contextual insights on the text given the
// applicable rules and the violations already found
func (a *Analyzer) Augment(ctx context.Context, text string, rules []models.Rule, violations []models.ViolationMatch) *models.ModelInsights {
	content, err := a.complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(text, rules, violations))
	if err != nil {
		a.logger.Warn("Model analysis call failed, using fallback insights", zap.Error(err))
		return fallbackInsights()
	}

	insights, ok := parseAnalysis(content)
	if !ok {
		a.logger.Warn("Model analysis reply had no parseable JSON, using fallback insights",
			zap.String("content", truncate(content, 200)))
		return fallbackInsights()
	}

	a.logger.Debug("Model analysis completed",
		zap.Float64("score", insights.Score),
		zap.String("status", string(insights.OverallStatus)),
		zap.Int("model_violations", len(insights.Violations)))
	return insights
}

// Rewrite asks the model for a fully compliant rewrite of the text with
// itemized before/after changes
func (a *Analyzer) Rewrite(ctx context.Context, text string, violations []models.ViolationMatch) *models.RewriteResult {
	content, err := a.complete(ctx, rewriteSystemPrompt, buildRewritePrompt(text, violations))
	if err != nil {
		a.logger.Warn("Model rewrite call failed, keeping original text", zap.Error(err))
		return fallbackRewrite(text)
	}

	result, ok := parseRewrite(content)
	if !ok {
		a.logger.Warn("Model rewrite reply had no parseable JSON, keeping original text",
			zap.String("content", truncate(content, 200)))
		return fallbackRewrite(text)
	}

	a.logger.Debug("Model rewrite completed", zap.Int("changes", len(result.Changes)))
	return result
}

func (a *Analyzer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temp,
		MaxTokens:   maxResponseTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// fallbackInsights is the conservative stand-in used whenever the model
// call or its parsing fails: mid score, review required, concerning tone
func fallbackInsights() *models.ModelInsights {
	return &models.ModelInsights{
		Score:         50,
		OverallStatus: models.LevelNeedsReview,
		ContextualInsights: []string{
			"Automated model analysis was unavailable; manual compliance review is required.",
		},
		Tone: models.ToneAssessment{
			Label:       "concerning",
			Appropriate: false,
			Suggestions: []string{"Have a compliance officer review the tone manually"},
		},
		Fallback: true,
	}
}

// fallbackRewrite keeps the original text unchanged when the model rewrite
// is unavailable
func fallbackRewrite(text string) *models.RewriteResult {
	return &models.RewriteResult{
		RewrittenText: text,
		Fallback:      true,
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
