package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	redis "github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/cache"
	"github.com/promoguard/promoscan/internal/config"
	"github.com/promoguard/promoscan/internal/detector"
	"github.com/promoguard/promoscan/internal/export"
	"github.com/promoguard/promoscan/internal/guideline"
	"github.com/promoguard/promoscan/internal/insight"
	"github.com/promoguard/promoscan/internal/metrics"
	"github.com/promoguard/promoscan/internal/pipeline"
	"github.com/promoguard/promoscan/internal/recommend"
	"github.com/promoguard/promoscan/internal/scoring"
	"github.com/promoguard/promoscan/internal/server"
	"github.com/promoguard/promoscan/internal/storage"
	"github.com/promoguard/promoscan/internal/worker"
	"github.com/promoguard/promoscan/pkg/database"
	"github.com/promoguard/promoscan/pkg/logging"
)

// App owns every component of the analysis service. Components are
// initialized in dependency order and torn down in reverse.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db          *database.DB
	reports     *storage.ReportRepository
	guidelines  *guideline.Repository
	resultCache cache.Cache
	redisClient *redis.Client
	collector   *metrics.Collector
	pipeline    *pipeline.Pipeline
	exporter    *export.Exporter
	workers     *worker.Manager
	httpServer  *server.Server
}

// New wires the full service from configuration. On any failure the
// partially built app is closed before returning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector(),
		exporter:  export.NewExporter(logger),
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("No OpenAI API key configured; model augmentation will serve fallback insights")
	}

	steps := []func(context.Context) error{
		a.initDatabase,
		a.initGuidelines,
		a.initCache,
		a.initPipeline,
		a.initWorkersAndServer,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) initDatabase(context.Context) error {
	if dir := filepath.Dir(a.cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            a.cfg.Database.Path,
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db

	if err := database.Migrate(db, storage.Migrations(), a.logger); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	a.reports = storage.NewReportRepository(db, a.logger)
	return nil
}

// initGuidelines loads the corpus once at startup. An unloadable corpus is
// fatal here; once running, reload failures keep the previous corpus.
func (a *App) initGuidelines(ctx context.Context) error {
	repo, err := guideline.NewRepository(ctx, GuidelineSource(a.cfg), a.cfg.Guidelines.CacheTTL, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load guideline corpus: %w", err)
	}
	a.guidelines = repo
	return nil
}

func (a *App) initCache(ctx context.Context) error {
	if a.cfg.Cache.Backend != "redis" {
		a.resultCache = cache.NewMemory(a.cfg.Cache.TTL, a.cfg.Cache.CleanupInterval)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redisClient = client
	a.resultCache = cache.NewRedis(client)
	return nil
}

func (a *App) initPipeline(context.Context) error {
	clientCfg := openai.DefaultConfig(a.cfg.OpenAI.APIKey)
	if a.cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = a.cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: a.cfg.OpenAI.Timeout}
	chatClient := openai.NewClientWithConfig(clientCfg)

	a.pipeline = pipeline.New(pipeline.Deps{
		Detector:    detector.NewDetector(a.guidelines, a.logger),
		Augmenter:   insight.NewAnalyzer(chatClient, a.cfg.OpenAI.Model, a.cfg.OpenAI.Temperature, a.logger),
		Scorer:      scoring.NewScorer(a.guidelines, a.logger),
		Recommender: recommend.NewGenerator(a.logger),
		Rules:       a.guidelines,
		Cache:       a.resultCache,
		Store:       a.reports,
		Metrics:     a.collector,
	}, pipeline.Config{
		CacheTTL:     a.cfg.Cache.TTL,
		ModelTimeout: a.cfg.Pipeline.ModelTimeout,
		BatchWorkers: a.cfg.Pipeline.BatchWorkers,
	}, a.logger)
	return nil
}

func (a *App) initWorkersAndServer(context.Context) error {
	a.workers = worker.NewManager(a.logger)
	a.workers.Register(worker.NewGuidelineRefresher(a.guidelines, a.cfg.Guidelines.RefreshSchedule, a.collector, a.logger))

	handlers := server.NewHandlers(a.pipeline, a.guidelines, a.reports, a.exporter, a.logger)
	a.httpServer = server.NewServer(server.Config{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}, handlers, a.logger)
	return nil
}

// Run starts the background workers and serves HTTP until ctx is
// cancelled
func (a *App) Run(ctx context.Context) error {
	if err := a.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start background workers: %w", err)
	}
	defer a.workers.StopAll()

	return a.httpServer.Start(ctx)
}

// Close releases held resources in reverse initialization order
func (a *App) Close() error {
	var firstErr error
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.redisClient = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.db = nil
	}
	return firstErr
}

// Pipeline exposes the orchestrator for CLI use
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Guidelines exposes the loaded corpus repository
func (a *App) Guidelines() *guideline.Repository { return a.guidelines }

// Reports exposes the report store
func (a *App) Reports() *storage.ReportRepository { return a.reports }

// Exporter exposes the workbook renderer
func (a *App) Exporter() *export.Exporter { return a.exporter }

// GuidelineSource builds the corpus source the configuration selects
func GuidelineSource(cfg *config.Config) guideline.Source {
	if cfg.Guidelines.URL != "" {
		return guideline.NewHTTPSource(cfg.Guidelines.URL, cfg.Guidelines.FetchTimeout)
	}
	return guideline.NewFileSource(cfg.Guidelines.Path)
}

// NewLogger builds the service logger from configuration
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
}
