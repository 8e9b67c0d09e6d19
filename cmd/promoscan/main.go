package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/app"
	"github.com/promoguard/promoscan/internal/cache"
	"github.com/promoguard/promoscan/internal/config"
	"github.com/promoguard/promoscan/internal/detector"
	"github.com/promoguard/promoscan/internal/guideline"
	"github.com/promoguard/promoscan/internal/insight"
	"github.com/promoguard/promoscan/internal/pipeline"
	"github.com/promoguard/promoscan/internal/recommend"
	"github.com/promoguard/promoscan/internal/scoring"
	"github.com/promoguard/promoscan/pkg/logging"
)

// Shared flags bound on the root command
var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	_ = gotenv.Load()

	root := &cobra.Command{
		Use:   "promoscan",
		Short: "Regulatory compliance analysis for marketing copy",
		Long: "PromoScan checks promotional text against a lending-marketing guideline corpus,\n" +
			"scores compliance, and suggests compliant rewrites.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newGuidelinesCmd())
	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the compliance analysis HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			logger.Info("Starting PromoScan compliance service",
				zap.Int("port", cfg.Server.Port))
			return application.Run(ctx)
		},
	}
}

// cliLogger builds a quiet console logger for command-line runs
func cliLogger() (*zap.Logger, error) {
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:      level,
		OutputPath: "stderr",
		Format:     "console",
	})
}

// localPipeline builds an in-process pipeline without persistence or
// metrics for one-shot command-line analysis
func localPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, *guideline.Repository, error) {
	repo, err := guideline.NewRepository(ctx, app.GuidelineSource(cfg), cfg.Guidelines.CacheTTL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load guideline corpus: %w", err)
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.OpenAI.Timeout}
	chatClient := openai.NewClientWithConfig(clientCfg)

	pipe := pipeline.New(pipeline.Deps{
		Detector:    detector.NewDetector(repo, logger),
		Augmenter:   insight.NewAnalyzer(chatClient, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger),
		Scorer:      scoring.NewScorer(repo, logger),
		Recommender: recommend.NewGenerator(logger),
		Rules:       repo,
		Cache:       cache.NewMemory(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
	}, pipeline.Config{
		ModelTimeout: cfg.Pipeline.ModelTimeout,
		BatchWorkers: cfg.Pipeline.BatchWorkers,
	}, logger)

	return pipe, repo, nil
}
