package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage label values for the per-stage duration histogram
const (
	StageDetection      = "detection"
	StageAugmentation   = "augmentation"
	StageScoring        = "scoring"
	StageRecommendation = "recommendation"
)

// Collector holds all pipeline metrics. A nil Collector is valid and
// records nothing, which keeps metrics optional in tests and the CLI.
type Collector struct {
	AnalysesTotal  prometheus.Counter
	AnalysisErrors prometheus.Counter

	AnalysisDuration prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	ScoreHistogram   prometheus.Histogram

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	ModelFallbacks prometheus.Counter

	QuickChecksTotal   prometheus.Counter
	QuickCheckDegraded prometheus.Counter

	BatchesTotal    prometheus.Counter
	BatchItemsTotal prometheus.Counter
	BatchItemErrors prometheus.Counter

	GuidelineReloads     prometheus.Counter
	GuidelineReloadFails prometheus.Counter
}

// NewCollector creates and registers all pipeline metrics on the default
// registry. Construct it once per process.
func NewCollector() *Collector {
	return &Collector{
		AnalysesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_analyses_total",
			Help: "The total number of full analyses run",
		}),
		AnalysisErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_analysis_errors_total",
			Help: "The total number of full analyses that failed",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "promoscan_analysis_duration_seconds",
			Help:    "End-to-end duration of a full analysis",
			Buckets: prometheus.DefBuckets,
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promoscan_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		ScoreHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "promoscan_compliance_score",
			Help:    "Distribution of final compliance scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_cache_hits_total",
			Help: "The total number of analysis cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_cache_misses_total",
			Help: "The total number of analysis cache misses",
		}),
		ModelFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_model_fallbacks_total",
			Help: "The total number of model calls absorbed into the conservative fallback",
		}),
		QuickChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_quick_checks_total",
			Help: "The total number of quick checks run",
		}),
		QuickCheckDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_quick_checks_degraded_total",
			Help: "The total number of quick checks that returned the degraded result",
		}),
		BatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_batches_total",
			Help: "The total number of batch requests processed",
		}),
		BatchItemsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_batch_items_total",
			Help: "The total number of batch items processed",
		}),
		BatchItemErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_batch_item_errors_total",
			Help: "The total number of batch items that failed",
		}),
		GuidelineReloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_guideline_reloads_total",
			Help: "The total number of guideline corpus reloads",
		}),
		GuidelineReloadFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_guideline_reload_failures_total",
			Help: "The total number of guideline reloads that failed",
		}),
	}
}

// RecordAnalysis records one completed full analysis
func (c *Collector) RecordAnalysis(duration time.Duration, score float64, err error) {
	if c == nil {
		return
	}
	c.AnalysesTotal.Inc()
	if err != nil {
		c.AnalysisErrors.Inc()
		return
	}
	c.AnalysisDuration.Observe(duration.Seconds())
	c.ScoreHistogram.Observe(score)
}

// RecordStage records the duration of one pipeline stage
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordCache records a cache lookup outcome
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}

// RecordModelFallback records one model call absorbed into the fallback
func (c *Collector) RecordModelFallback() {
	if c == nil {
		return
	}
	c.ModelFallbacks.Inc()
}

// RecordQuickCheck records one quick check run
func (c *Collector) RecordQuickCheck(degraded bool) {
	if c == nil {
		return
	}
	c.QuickChecksTotal.Inc()
	if degraded {
		c.QuickCheckDegraded.Inc()
	}
}

// RecordBatch records one batch request and its item count
func (c *Collector) RecordBatch(items int) {
	if c == nil {
		return
	}
	c.BatchesTotal.Inc()
	c.BatchItemsTotal.Add(float64(items))
}

// RecordBatchItemError records one failed batch item
func (c *Collector) RecordBatchItemError() {
	if c == nil {
		return
	}
	c.BatchItemErrors.Inc()
}

// RecordGuidelineReload records one reload attempt
func (c *Collector) RecordGuidelineReload(err error) {
	if c == nil {
		return
	}
	c.GuidelineReloads.Inc()
	if err != nil {
		c.GuidelineReloadFails.Inc()
	}
}
