package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/cache"
	"github.com/promoguard/promoscan/internal/detector"
	"github.com/promoguard/promoscan/internal/guideline"
	"github.com/promoguard/promoscan/internal/insight"
	"github.com/promoguard/promoscan/internal/models"
	"github.com/promoguard/promoscan/internal/recommend"
	"github.com/promoguard/promoscan/internal/scoring"
)

// failingChat simulates the model being unreachable
type failingChat struct{}

func (failingChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
}

// healthyChat answers both adapter calls with one combined JSON document
type healthyChat struct{}

func (healthyChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	content := `{
		"compliance_score": 40,
		"overall_status": "non_compliant",
		"violations": [],
		"contextual_insights": ["the offer implies no assessment happens"],
		"tone_assessment": {"label": "aggressive", "appropriate": false, "suggestions": ["tone down the urgency"]},
		"rewritten_text": "Loans subject to eligibility. Terms and conditions apply.",
		"changes": [{"original": "Guaranteed", "revised": "subject to eligibility", "reason": "removes absolute promise"}]
	}`
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

// markedDetector fails on one marker text so batch error paths can be
// exercised with otherwise real components
type markedDetector struct {
	real   *detector.Detector
	failOn string
}

func (m markedDetector) Analyze(ctx context.Context, text, marketingContext string) (*models.ComplianceAnalysis, error) {
	if text == m.failOn {
		return nil, errors.New("simulated detector failure")
	}
	return m.real.Analyze(ctx, text, marketingContext)
}

type savedReport struct {
	documentID string
	actorID    string
	resultID   string
}

type recordingStore struct {
	mu    sync.Mutex
	saved []savedReport
	err   error
}

func (r *recordingStore) Save(_ context.Context, documentID, actorID string, result *models.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, savedReport{documentID: documentID, actorID: actorID, resultID: result.ID})
	return nil
}

func pipelineCorpus() *models.GuidelineSet {
	return &models.GuidelineSet{
		Metadata: models.CorpusMetadata{Version: "test"},
		Guidelines: map[string][]models.Rule{
			"approval_claims": {
				{
					ID:                "CLAIM-001",
					Title:             "No unconditional approval promises",
					ViolationKeywords: []string{"guaranteed"},
					ProhibitedClaims:  []string{"no documentation"},
					Severity:          models.SeverityCritical,
					Weight:            60,
					Citation:          models.Citation{SourceDocument: "Fair Lending Advertising Code", Section: "5.1"},
				},
			},
			"interest_rate_disclosure": {
				{
					ID:                "RATE-001",
					Title:             "Interest rate claims need APR",
					ViolationKeywords: []string{"zero interest", "lowest interest"},
					RequiredElements:  []string{"annual percentage rate"},
					Severity:          models.SeverityHigh,
					Weight:            40,
					Citation:          models.Citation{SourceDocument: "Fair Lending Advertising Code", Section: "4.2"},
				},
			},
		},
		Methodology: models.ScoringMethodology{
			BaseScore: 100,
			SeverityDeductions: map[models.Severity]float64{
				models.SeverityCritical: -25,
				models.SeverityHigh:     -15,
				models.SeverityMedium:   -8,
				models.SeverityLow:      -3,
			},
			MissingElementPenalty: -10,
			CategoryWeights: map[string]float64{
				"approval_claims":          60,
				"interest_rate_disclosure": 40,
			},
			CompliantThreshold: 80,
			ReviewThreshold:    50,
		},
	}
}

type testRig struct {
	pipeline *Pipeline
	repo     *guideline.Repository
	store    *recordingStore
}

func newTestRig(t *testing.T, chat insight.ChatClient, cfg Config, failOn string) *testRig {
	t.Helper()
	logger := zap.NewNop()

	repo, err := guideline.NewRepository(context.Background(), guideline.NewStaticSource(pipelineCorpus()), time.Hour, logger)
	require.NoError(t, err)

	store := &recordingStore{}
	var det Detector = detector.NewDetector(repo, logger)
	if failOn != "" {
		det = markedDetector{real: detector.NewDetector(repo, logger), failOn: failOn}
	}

	p := New(Deps{
		Detector:    det,
		Augmenter:   insight.NewAnalyzer(chat, "gpt-4o-mini", 0.2, logger),
		Scorer:      scoring.NewScorer(repo, logger),
		Recommender: recommend.NewGenerator(logger),
		Rules:       repo,
		Cache:       cache.NewMemory(30*time.Minute, time.Minute),
		Store:       store,
	}, cfg, logger)

	return &testRig{pipeline: p, repo: repo, store: store}
}

const riskyText = "100% Guaranteed Approval! Apply now, no documentation needed."

func TestAnalyze_CompleteReportDespiteModelFailure(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	result, err := rig.pipeline.Analyze(context.Background(), AnalyzeRequest{Text: riskyText})
	require.NoError(t, err, "model failures must never surface")

	assert.True(t, result.Insights.Fallback)
	assert.Equal(t, models.LevelNeedsReview, result.Insights.OverallStatus)
	assert.InDelta(t, 50, result.Insights.Score, 0.001)

	// The report is still complete
	assert.NotEmpty(t, result.Report.Violations)
	assert.NotEmpty(t, result.Report.Citations)
	assert.NotEmpty(t, result.Report.Recommendations)
	assert.Less(t, result.Report.Breakdown.TotalScore, 100.0)
	assert.NotEmpty(t, result.Recommendations.Fixes)

	// Rewrite fell back too, so no AI-enhanced alternative is offered
	for _, alt := range result.Recommendations.Alternatives {
		assert.NotEqual(t, models.AlternativeAIEnhanced, alt.Label)
	}
}

func TestAnalyze_HealthyModelContributes(t *testing.T) {
	rig := newTestRig(t, healthyChat{}, Config{}, "")

	result, err := rig.pipeline.Analyze(context.Background(), AnalyzeRequest{Text: riskyText})
	require.NoError(t, err)

	assert.False(t, result.Insights.Fallback)
	assert.Equal(t, models.LevelNonCompliant, result.Insights.OverallStatus)
	assert.Equal(t, "aggressive", result.Insights.Tone.Label)

	var labels []string
	for _, alt := range result.Recommendations.Alternatives {
		labels = append(labels, alt.Label)
	}
	assert.Contains(t, labels, models.AlternativeAIEnhanced)
	assert.Contains(t, result.Recommendations.ToneAdjustments, "tone down the urgency")
}

func TestAnalyze_CacheIdempotence(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")
	ctx := context.Background()
	req := AnalyzeRequest{Text: riskyText, Context: "loan advertisement"}

	first, err := rig.pipeline.Analyze(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheUsed)

	second, err := rig.pipeline.Analyze(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheUsed)

	assert.Equal(t, first.ID, second.ID, "cached result is the same result")
	assert.Equal(t, first.Report.Violations, second.Report.Violations)
	assert.Equal(t, first.Report.Breakdown, second.Report.Breakdown)
}

func TestAnalyze_CacheKeyedByContext(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")
	ctx := context.Background()

	first, err := rig.pipeline.Analyze(ctx, AnalyzeRequest{Text: "some copy"})
	require.NoError(t, err)

	other, err := rig.pipeline.Analyze(ctx, AnalyzeRequest{Text: "some copy", Context: "email"})
	require.NoError(t, err)

	assert.False(t, other.CacheUsed, "different context is a different cache entry")
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAnalyze_ScoringFailurePropagates(t *testing.T) {
	logger := zap.NewNop()
	repo, err := guideline.NewRepository(context.Background(), guideline.NewStaticSource(&models.GuidelineSet{
		Guidelines: map[string][]models.Rule{
			"approval_claims": {{ID: "CLAIM-001", Title: "t", Severity: models.SeverityCritical}},
		},
	}), time.Hour, logger)
	require.NoError(t, err)

	p := New(Deps{
		Detector:    detector.NewDetector(repo, logger),
		Augmenter:   insight.NewAnalyzer(failingChat{}, "gpt-4o-mini", 0.2, logger),
		Scorer:      scoring.NewScorer(repo, logger),
		Recommender: recommend.NewGenerator(logger),
		Rules:       repo,
		Cache:       cache.NewMemory(time.Minute, time.Minute),
	}, Config{}, logger)

	_, err = p.Analyze(context.Background(), AnalyzeRequest{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, scoring.ErrNoMethodology)
}

func TestAnalyze_PersistsWithDocumentID(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	result, err := rig.pipeline.Analyze(context.Background(), AnalyzeRequest{
		Text:       "plain copy",
		ActorID:    "reviewer-7",
		DocumentID: "doc-42",
	})
	require.NoError(t, err)

	require.Len(t, rig.store.saved, 1)
	assert.Equal(t, "doc-42", rig.store.saved[0].documentID)
	assert.Equal(t, "reviewer-7", rig.store.saved[0].actorID)
	assert.Equal(t, result.ID, rig.store.saved[0].resultID)
}

func TestAnalyze_StoreFailureAbsorbed(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")
	rig.store.err = errors.New("disk full")

	result, err := rig.pipeline.Analyze(context.Background(), AnalyzeRequest{Text: "plain copy", DocumentID: "doc-1"})
	require.NoError(t, err, "persistence failures never fail the analysis")
	assert.NotNil(t, result)
}

func TestAnalyze_NoPersistWithoutDocumentID(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	_, err := rig.pipeline.Analyze(context.Background(), AnalyzeRequest{Text: "plain copy"})
	require.NoError(t, err)
	assert.Empty(t, rig.store.saved)
}

func TestBatchAnalyze_OrderAndItemErrors(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "BROKEN ITEM")

	items := []models.BatchItem{
		{ID: "a", Text: riskyText},
		{ID: "b", Text: "BROKEN ITEM"},
		{ID: "c", Text: "perfectly plain copy"},
	}

	results := rig.pipeline.BatchAnalyze(context.Background(), items)
	require.Len(t, results, len(items), "always N results for N items")

	assert.Equal(t, "a", results[0].ID)
	require.NotNil(t, results[0].Result)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, "b", results[1].ID)
	assert.Nil(t, results[1].Result)
	assert.Contains(t, results[1].Error, "simulated detector failure")

	assert.Equal(t, "c", results[2].ID)
	require.NotNil(t, results[2].Result)
}

func TestBatchAnalyze_WorkerPoolPreservesOrder(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{BatchWorkers: 4}, "")

	items := make([]models.BatchItem, 8)
	texts := []string{"alpha copy", "beta copy", "gamma copy", "delta copy", "epsilon copy", "zeta copy", "eta copy", "theta copy"}
	for i, text := range texts {
		items[i] = models.BatchItem{ID: text[:2], Text: text}
	}

	results := rig.pipeline.BatchAnalyze(context.Background(), items)
	require.Len(t, results, len(items))
	for i, item := range items {
		assert.Equal(t, item.ID, results[i].ID, "output order matches input order")
		assert.NotNil(t, results[i].Result)
	}
}

func TestBatchAnalyze_Empty(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")
	assert.Empty(t, rig.pipeline.BatchAnalyze(context.Background(), nil))
}

func TestQuickCheck_RiskyText(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	result := rig.pipeline.QuickCheck(context.Background(), riskyText, "")
	require.NotNil(t, result)

	assert.Less(t, result.Score, 100.0)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	assert.NotEmpty(t, result.TopViolations)
	assert.LessOrEqual(t, len(result.TopViolations), 5)
}

func TestQuickCheck_EmptyInputNeverFails(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	for _, text := range []string{"", "   ", "\n\t"} {
		result := rig.pipeline.QuickCheck(context.Background(), text, "")
		require.NotNil(t, result)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 100.0)
		assert.NotEmpty(t, result.RiskLevel)
	}
}

func TestQuickCheck_DegradedOnInternalFailure(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := rig.pipeline.QuickCheck(ctx, "anything", "")
	require.NotNil(t, result)

	assert.InDelta(t, 50, result.Score, 0.001)
	assert.Equal(t, models.RiskMedium, result.RiskLevel)
	require.Len(t, result.TopViolations, 1)
	assert.Equal(t, "System Error", result.TopViolations[0].RuleTitle)
}

func TestQuickCheck_CapsTopViolations(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")

	text := "guaranteed guaranteed guaranteed guaranteed guaranteed guaranteed no documentation"
	result := rig.pipeline.QuickCheck(context.Background(), text, "")
	assert.Len(t, result.TopViolations, 5)
}

func TestReloadGuidelines(t *testing.T) {
	rig := newTestRig(t, failingChat{}, Config{}, "")
	require.NoError(t, rig.pipeline.ReloadGuidelines(context.Background()))
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("text", "ctx")
	b := cacheKey("text", "ctx")
	c := cacheKey("text", "other")
	d := cacheKey("text|ctx", "")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d, "separator prevents boundary collisions")
	assert.Len(t, a, 64)
}
