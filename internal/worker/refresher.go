package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/metrics"
)

// DefaultRefreshSchedule reloads guidelines four times a day, often enough
// to pick up corpus updates without hammering a remote source
const DefaultRefreshSchedule = "@every 6h"

const reloadTimeout = time.Minute

// Reloader is the slice of the guideline repository the refresher needs
type Reloader interface {
	Reload(ctx context.Context) error
}

// GuidelineRefresher reloads the guideline corpus on a cron schedule so
// long-running servers pick up regulatory updates without a restart
type GuidelineRefresher struct {
	reloader Reloader
	metrics  *metrics.Collector
	logger   *zap.Logger
	schedule string

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewGuidelineRefresher creates a refresher. An empty schedule uses
// DefaultRefreshSchedule.
func NewGuidelineRefresher(reloader Reloader, schedule string, collector *metrics.Collector, logger *zap.Logger) *GuidelineRefresher {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &GuidelineRefresher{
		reloader: reloader,
		metrics:  collector,
		logger:   logger,
		schedule: schedule,
	}
}

// Name implements Worker
func (g *GuidelineRefresher) Name() string {
	return "guideline-refresher"
}

// Start schedules periodic reloads. Returns an error for an invalid
// schedule expression or if already running.
func (g *GuidelineRefresher) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isRunning {
		return fmt.Errorf("guideline refresher is already running")
	}

	g.ctx, g.cancel = context.WithCancel(ctx)
	g.cron = cron.New()

	if _, err := g.cron.AddFunc(g.schedule, g.refresh); err != nil {
		g.cancel()
		return fmt.Errorf("invalid refresh schedule %q: %w", g.schedule, err)
	}

	g.cron.Start()
	g.isRunning = true

	g.logger.Info("GuidelineRefresher started", zap.String("schedule", g.schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight reload to finish
func (g *GuidelineRefresher) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isRunning {
		return
	}

	stopCtx := g.cron.Stop()
	<-stopCtx.Done()

	g.cancel()
	g.isRunning = false

	g.logger.Info("GuidelineRefresher stopped")
}

func (g *GuidelineRefresher) refresh() {
	ctx, cancel := context.WithTimeout(g.ctx, reloadTimeout)
	defer cancel()

	err := g.reloader.Reload(ctx)
	g.metrics.RecordGuidelineReload(err)
	if err != nil {
		g.logger.Error("Scheduled guideline reload failed", zap.Error(err))
		return
	}
	g.logger.Info("Scheduled guideline reload completed")
}
