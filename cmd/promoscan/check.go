package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promoguard/promoscan/internal/config"
	"github.com/promoguard/promoscan/internal/export"
	"github.com/promoguard/promoscan/internal/models"
	"github.com/promoguard/promoscan/internal/pipeline"
)

func newCheckCmd() *cobra.Command {
	var (
		marketingContext string
		guidelinesPath   string
		asJSON           bool
		quick            bool
		exportPath       string
	)

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Analyze promotional text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if guidelinesPath != "" {
				cfg.Guidelines.Path = guidelinesPath
				cfg.Guidelines.URL = ""
			}

			logger, err := cliLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			pipe, _, err := localPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}

			if quick {
				result := pipe.QuickCheck(ctx, text, marketingContext)
				return printQuickCheck(cmd.OutOrStdout(), result, asJSON)
			}

			result, err := pipe.Analyze(ctx, pipeline.AnalyzeRequest{Text: text, Context: marketingContext})
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := export.NewExporter(logger).Save(result, exportPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Workbook written to %s\n", exportPath)
			}

			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().StringVarP(&marketingContext, "context", "c", "", "marketing context, e.g. \"loan email\"")
	cmd.Flags().StringVar(&guidelinesPath, "guidelines", "", "override guideline corpus file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "rule-based screening only, no model calls")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write an Excel workbook to this path")

	return cmd
}

// readInput reads the text to analyze from the file argument, or stdin
// when no argument (or "-") is given
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

func printResult(w io.Writer, result *models.AnalysisResult, asJSON bool) error {
	if asJSON {
		return printJSON(w, result)
	}

	breakdown := result.Report.Breakdown
	fmt.Fprintf(w, "Score: %.1f/100 (%s)   Risk: %s\n",
		breakdown.TotalScore, breakdown.Level, breakdown.Risk.Level)
	if result.CacheUsed {
		fmt.Fprintln(w, "Served from cache")
	}
	fmt.Fprintln(w)

	if len(result.Report.Violations) > 0 {
		fmt.Fprintf(w, "Violations (%d):\n", len(result.Report.Violations))
		for _, v := range result.Report.Violations {
			fmt.Fprintf(w, "  [%s] %s %s\n", v.Severity, v.RuleID, v.RuleTitle)
			fmt.Fprintf(w, "      matched %q (%s, confidence %.2f)\n", v.MatchedText, v.Kind, v.Confidence)
		}
		fmt.Fprintln(w)
	}

	if len(result.Report.MissingElements) > 0 {
		fmt.Fprintf(w, "Missing elements (%d):\n", len(result.Report.MissingElements))
		for _, m := range result.Report.MissingElements {
			fmt.Fprintf(w, "  - %s (%s)\n", m.Element, m.RuleTitle)
		}
		fmt.Fprintln(w)
	}

	if !result.Insights.Fallback {
		fmt.Fprintf(w, "Model review: %s (score %.0f, tone %s)\n\n",
			result.Insights.OverallStatus, result.Insights.Score, result.Insights.Tone.Label)
	}

	if len(result.Report.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for i, rec := range result.Report.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
		fmt.Fprintln(w)
	}

	if len(result.Recommendations.Alternatives) > 0 {
		var labels []string
		for _, alt := range result.Recommendations.Alternatives {
			labels = append(labels, alt.Label)
		}
		fmt.Fprintf(w, "Alternative rewrites available: %s (use --json for full text)\n",
			strings.Join(labels, ", "))
	}

	return nil
}

func printQuickCheck(w io.Writer, result *models.QuickCheckResult, asJSON bool) error {
	if asJSON {
		return printJSON(w, result)
	}

	fmt.Fprintf(w, "Quick check: score %.1f/100   Risk: %s\n", result.Score, result.RiskLevel)
	for _, v := range result.TopViolations {
		fmt.Fprintf(w, "  [%s] %s %q\n", v.Severity, v.RuleID, v.MatchedText)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
