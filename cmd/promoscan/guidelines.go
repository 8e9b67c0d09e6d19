package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/promoguard/promoscan/internal/app"
	"github.com/promoguard/promoscan/internal/config"
)

func newGuidelinesCmd() *cobra.Command {
	var (
		guidelinesPath string
		guidelinesURL  string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "guidelines",
		Short: "Load and summarize the guideline corpus",
		Long:  "Loads the guideline corpus from the configured source, validates it, and prints a summary. Useful before deploying a corpus update.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if guidelinesPath != "" {
				cfg.Guidelines.Path = guidelinesPath
				cfg.Guidelines.URL = ""
			}
			if guidelinesURL != "" {
				cfg.Guidelines.URL = guidelinesURL
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			source := app.GuidelineSource(cfg)
			set, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("corpus failed validation: %w", err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), set)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Corpus version %s (%s)\n", set.Metadata.Version, source.Describe())
			fmt.Fprintf(w, "%d categories, %d rules\n\n", len(set.Guidelines), set.RuleCount())

			categories := make([]string, 0, len(set.Guidelines))
			for category := range set.Guidelines {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			for _, category := range categories {
				rules := set.Guidelines[category]
				fmt.Fprintf(w, "%s (%d):\n", category, len(rules))
				for _, rule := range rules {
					fmt.Fprintf(w, "  [%s] %s %s\n", rule.Severity, rule.ID, rule.Title)
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "Patterns: %d high-risk phrases, %d medium-risk phrases, %d required disclaimers\n",
				len(set.Patterns.HighRiskPhrases),
				len(set.Patterns.MediumRiskPhrases),
				len(set.Patterns.RequiredDisclaimers))

			fmt.Fprintf(w, "Scoring: base %.0f, compliant >= %.0f, needs review >= %.0f\n",
				set.Methodology.BaseScore,
				set.Methodology.CompliantThreshold,
				set.Methodology.ReviewThreshold)

			return nil
		},
	}

	cmd.Flags().StringVar(&guidelinesPath, "guidelines", "", "override guideline corpus file")
	cmd.Flags().StringVar(&guidelinesURL, "url", "", "load the corpus from a URL instead")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized corpus as JSON")

	return cmd
}
