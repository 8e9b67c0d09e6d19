package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// topViolationLimit caps the violations returned by a quick check
const topViolationLimit = 5

// QuickCheck runs only the rule-based stage for low-latency screening.
// It never fails: any internal error or panic degrades to a synthetic
// mid-risk result so callers can always render something.
func (p *Pipeline) QuickCheck(ctx context.Context, text, marketingContext string) *models.QuickCheckResult {
	start := time.Now()

	result := p.tryQuickCheck(ctx, text, marketingContext, start)
	degraded := result == nil
	if degraded {
		result = degradedQuickCheck(start)
	}

	p.metrics.RecordQuickCheck(degraded)
	return result
}

func (p *Pipeline) tryQuickCheck(ctx context.Context, text, marketingContext string, start time.Time) (result *models.QuickCheckResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Quick check panicked", zap.Any("panic", r))
			result = nil
		}
	}()

	analysis, err := p.detector.Analyze(ctx, text, marketingContext)
	if err != nil {
		p.logger.Warn("Quick check detection failed", zap.Error(err))
		return nil
	}

	top := analysis.Violations
	if len(top) > topViolationLimit {
		top = top[:topViolationLimit]
	}
	return &models.QuickCheckResult{
		Score:         analysis.OverallScore,
		RiskLevel:     analysis.Metadata.RiskLevel,
		TopViolations: top,
		ElapsedMs:     time.Since(start).Milliseconds(),
	}
}

// degradedQuickCheck is the fixed best-effort result used when even the
// rule-based stage could not complete
func degradedQuickCheck(start time.Time) *models.QuickCheckResult {
	return &models.QuickCheckResult{
		Score:     50,
		RiskLevel: models.RiskMedium,
		TopViolations: []models.ViolationMatch{
			{
				RuleID:    "SYSTEM-000",
				RuleTitle: "System Error",
				Category:  "system",
				Kind:      models.KindKeywordViolation,
				Context:   "the analysis could not be completed; treat this content as unreviewed",
				Severity:  models.SeverityMedium,
			},
		},
		ElapsedMs: time.Since(start).Milliseconds(),
	}
}

// BatchAnalyze runs the full pipeline for each item. The returned slice
// always has the same length and order as the input; one item's failure
// fills its Error field and never aborts its siblings.
func (p *Pipeline) BatchAnalyze(ctx context.Context, items []models.BatchItem) []models.BatchResult {
	p.metrics.RecordBatch(len(items))
	results := make([]models.BatchResult, len(items))

	if p.cfg.BatchWorkers <= 1 {
		for i, item := range items {
			results[i] = p.batchOne(ctx, item)
		}
		return results
	}

	sem := make(chan struct{}, p.cfg.BatchWorkers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.BatchItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.batchOne(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) batchOne(ctx context.Context, item models.BatchItem) (result models.BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Batch item panicked",
				zap.String("item_id", item.ID),
				zap.Any("panic", r))
			p.metrics.RecordBatchItemError()
			result = models.BatchResult{ID: item.ID, Error: "internal error"}
		}
	}()

	res, err := p.Analyze(ctx, AnalyzeRequest{
		Text:       item.Text,
		Context:    item.Context,
		DocumentID: item.ID,
	})
	if err != nil {
		p.metrics.RecordBatchItemError()
		p.logger.Warn("Batch item failed",
			zap.String("item_id", item.ID),
			zap.Error(err))
		return models.BatchResult{ID: item.ID, Error: err.Error()}
	}
	return models.BatchResult{ID: item.ID, Result: res}
}
