package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promoguard/promoscan/internal/config"
	"github.com/promoguard/promoscan/internal/export"
	"github.com/promoguard/promoscan/internal/storage"
	"github.com/promoguard/promoscan/pkg/database"
)

func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <report-id>",
		Short: "Export a stored report as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportID := args[0]
			if outputPath == "" {
				outputPath = fmt.Sprintf("compliance-report-%s.xlsx", reportID)
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			logger, err := cliLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.New(database.Config{
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			repo := storage.NewReportRepository(db, logger)
			result, err := repo.GetByID(ctx, reportID)
			if err != nil {
				return err
			}

			if err := export.NewExporter(logger).Save(result, outputPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "output file path (default compliance-report-<id>.xlsx)")

	return cmd
}
