package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/promoguard/promoscan/internal/cache"
	"github.com/promoguard/promoscan/internal/metrics"
	"github.com/promoguard/promoscan/internal/models"
)

// Defaults applied by New when the config leaves them zero
const (
	DefaultCacheTTL     = 30 * time.Minute
	DefaultModelTimeout = 20 * time.Second
)

// Detector runs the rule-based scanning stage
type Detector interface {
	Analyze(ctx context.Context, text, marketingContext string) (*models.ComplianceAnalysis, error)
}

// Augmenter runs the external-model stages. Both calls degrade internally
// and never return errors.
type Augmenter interface {
	Augment(ctx context.Context, text string, rules []models.Rule, violations []models.ViolationMatch) *models.ModelInsights
	Rewrite(ctx context.Context, text string, violations []models.ViolationMatch) *models.RewriteResult
}

// Scorer converts findings into the full report
type Scorer interface {
	BuildReport(analysis *models.ComplianceAnalysis) (*models.ComplianceReport, error)
}

// Recommender synthesizes the remediation package
type Recommender interface {
	Generate(text string, analysis *models.ComplianceAnalysis, insights *models.ModelInsights, rewrite *models.RewriteResult) *models.Recommendations
}

// RuleSource is the slice of the guideline repository the orchestrator
// needs: rule lookup for prompts and on-demand reload
type RuleSource interface {
	ByID(id string) (models.Rule, bool)
	Reload(ctx context.Context) error
}

// ReportStore is the external persistence collaborator. The pipeline only
// writes; it never reads results back.
type ReportStore interface {
	Save(ctx context.Context, documentID, actorID string, result *models.AnalysisResult) error
}

// Config tunes the orchestrator
type Config struct {
	CacheTTL     time.Duration
	ModelTimeout time.Duration
	BatchWorkers int
}

// Deps collects the pipeline's collaborators. Store and Metrics are
// optional; a nil Cache disables result caching.
type Deps struct {
	Detector    Detector
	Augmenter   Augmenter
	Scorer      Scorer
	Recommender Recommender
	Rules       RuleSource
	Cache       cache.Cache
	Store       ReportStore
	Metrics     *metrics.Collector
}

// AnalyzeRequest is one full-analysis invocation. ActorID and DocumentID
// only scope persistence; they never influence the analysis itself.
type AnalyzeRequest struct {
	Text       string
	Context    string
	ActorID    string
	DocumentID string
}

// Pipeline sequences detection, model augmentation, scoring and
// recommendation generation, with read-through caching in front
type Pipeline struct {
	detector    Detector
	augmenter   Augmenter
	scorer      Scorer
	recommender Recommender
	rules       RuleSource
	cache       cache.Cache
	store       ReportStore
	metrics     *metrics.Collector
	logger      *zap.Logger
	cfg         Config

	group singleflight.Group
}

// New creates the pipeline orchestrator
func New(deps Deps, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}
	return &Pipeline{
		detector:    deps.Detector,
		augmenter:   deps.Augmenter,
		scorer:      deps.Scorer,
		recommender: deps.Recommender,
		rules:       deps.Rules,
		cache:       deps.Cache,
		store:       deps.Store,
		metrics:     deps.Metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// Analyze runs the full four-stage pipeline for one text. Identical
// concurrent requests share a single execution, and completed results are
// cached under a content hash for the configured TTL.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error) {
	key := cacheKey(req.Text, req.Context)

	if cached := p.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		return p.run(ctx, req, key)
	})
	if err != nil {
		p.metrics.RecordAnalysis(0, 0, err)
		return nil, err
	}

	result := v.(*models.AnalysisResult)
	if shared {
		// Piggybacked on another caller's execution; report it like a hit
		out := *result
		out.CacheUsed = true
		return &out, nil
	}
	return result, nil
}

// fromCache returns an annotated copy of the cached result, or nil
func (p *Pipeline) fromCache(ctx context.Context, key string) *models.AnalysisResult {
	if p.cache == nil {
		return nil
	}
	cached, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			p.logger.Warn("Cache read failed", zap.Error(err))
		}
		p.metrics.RecordCache(false)
		return nil
	}
	p.metrics.RecordCache(true)

	out := *cached
	out.CacheUsed = true
	return &out
}

// run executes the four stages and handles caching and persistence of the
// fresh result
func (p *Pipeline) run(ctx context.Context, req AnalyzeRequest, key string) (*models.AnalysisResult, error) {
	start := time.Now()

	stageStart := time.Now()
	analysis, err := p.detector.Analyze(ctx, req.Text, req.Context)
	if err != nil {
		return nil, fmt.Errorf("detection stage failed: %w", err)
	}
	p.metrics.RecordStage(metrics.StageDetection, time.Since(stageStart))

	stageStart = time.Now()
	insights, rewrite := p.augment(ctx, req.Text, analysis)
	p.metrics.RecordStage(metrics.StageAugmentation, time.Since(stageStart))

	stageStart = time.Now()
	report, err := p.scorer.BuildReport(analysis)
	if err != nil {
		return nil, fmt.Errorf("scoring stage failed: %w", err)
	}
	p.metrics.RecordStage(metrics.StageScoring, time.Since(stageStart))

	stageStart = time.Now()
	recommendations := p.recommender.Generate(req.Text, analysis, insights, rewrite)
	p.metrics.RecordStage(metrics.StageRecommendation, time.Since(stageStart))

	result := &models.AnalysisResult{
		ID:              uuid.NewString(),
		Report:          *report,
		Insights:        *insights,
		Recommendations: *recommendations,
		AnalyzedAt:      time.Now().UTC(),
		ElapsedMs:       time.Since(start).Milliseconds(),
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, result, p.cfg.CacheTTL); err != nil {
			p.logger.Warn("Cache write failed", zap.Error(err))
		}
	}
	p.persist(ctx, req, result)

	p.metrics.RecordAnalysis(time.Since(start), report.Breakdown.TotalScore, nil)
	p.logger.Info("Analysis completed",
		zap.String("result_id", result.ID),
		zap.Float64("score", report.Breakdown.TotalScore),
		zap.String("level", string(report.Breakdown.Level)),
		zap.Int("violations", len(report.Violations)),
		zap.Int64("elapsed_ms", result.ElapsedMs))

	return result, nil
}

// augment runs both model calls under the configured timeout. Fallbacks
// surface in the results, never as errors.
func (p *Pipeline) augment(ctx context.Context, text string, analysis *models.ComplianceAnalysis) (*models.ModelInsights, *models.RewriteResult) {
	mctx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
	insights := p.augmenter.Augment(mctx, text, p.rulesFor(analysis), analysis.Violations)
	cancel()
	if insights.Fallback {
		p.metrics.RecordModelFallback()
	}

	rctx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
	rewrite := p.augmenter.Rewrite(rctx, text, analysis.Violations)
	cancel()
	if rewrite.Fallback {
		p.metrics.RecordModelFallback()
	}

	return insights, rewrite
}

// rulesFor resolves the applied rule IDs back into full rules for the
// model prompt
func (p *Pipeline) rulesFor(analysis *models.ComplianceAnalysis) []models.Rule {
	if p.rules == nil {
		return nil
	}
	rules := make([]models.Rule, 0, len(analysis.RulesApplied))
	for _, id := range analysis.RulesApplied {
		if rule, ok := p.rules.ByID(id); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

// persist hands the result to the external store. Store failures are
// logged and absorbed: the caller still gets the complete report.
func (p *Pipeline) persist(ctx context.Context, req AnalyzeRequest, result *models.AnalysisResult) {
	if p.store == nil || req.DocumentID == "" {
		return
	}
	if err := p.store.Save(ctx, req.DocumentID, req.ActorID, result); err != nil {
		p.logger.Error("Failed to persist analysis result",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
	}
}

// ReloadGuidelines reloads the rule corpus without a process restart
func (p *Pipeline) ReloadGuidelines(ctx context.Context) error {
	err := p.rules.Reload(ctx)
	p.metrics.RecordGuidelineReload(err)
	return err
}

// cacheKey hashes the analysis inputs into an opaque cache key
func cacheKey(text, marketingContext string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(marketingContext))
	return hex.EncodeToString(h.Sum(nil))
}
