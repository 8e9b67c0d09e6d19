package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/detector"
	"github.com/promoguard/promoscan/internal/guideline"
	"github.com/promoguard/promoscan/internal/insight"
)

// sampleText trips several guideline rules on purpose so the model has
// real violations to comment on
const sampleText = "100% Guaranteed Approval! Get the lowest interest rate in the market. No documentation needed. Act now!"

func main() {
	gotenv.Load()

	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "OpenAI-compatible base URL (or set OPENAI_BASE_URL env var)")
	corpusFile := flag.String("guidelines", "configs/guidelines.json", "Path to guidelines.json")
	model := flag.String("model", "gpt-4o-mini", "Model to probe")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *baseURL == "" {
		*baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-gpt-connection --key sk-... [--guidelines <path>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== Model Connection Test ===")

	// Diagnostic info
	fmt.Println("Configuration:")
	fmt.Printf("  Guideline corpus: %s\n", *corpusFile)
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	if len(*apiKey) >= 4 {
		fmt.Printf("  API key prefix: %s...\n", (*apiKey)[:4])
	}
	if *baseURL != "" {
		fmt.Printf("  Base URL: %s\n", *baseURL)
	}
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	// Check corpus file exists
	if _, err := os.Stat(*corpusFile); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Guideline corpus not found: %s\n", *corpusFile)
		os.Exit(1)
	}
	fmt.Printf("✓ Guideline corpus found: %s\n\n", *corpusFile)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Load the corpus and run the rule scan so the model call carries a
	// realistic analysis, not an empty one
	fmt.Println("Loading guideline corpus...")
	repo, err := guideline.NewRepository(ctx, guideline.NewFileSource(*corpusFile), time.Hour, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load guidelines: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Corpus loaded: version %s, %d rules\n\n", repo.Set().Metadata.Version, repo.Set().RuleCount())

	fmt.Println("Running rule-based scan on sample text...")
	analysis, err := detector.NewDetector(repo, logger).Analyze(ctx, sampleText, "loan advertisement")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Rule scan failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Rule scan found %d violations (score %.1f)\n\n", len(analysis.Violations), analysis.OverallScore)

	// Create the model adapter
	fmt.Println("Initializing model adapter...")
	cfg := openai.DefaultConfig(*apiKey)
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: *timeout}
	analyzer := insight.NewAnalyzer(openai.NewClientWithConfig(cfg), *model, 0.2, logger)
	fmt.Println("✓ Model adapter initialized")

	fmt.Println("Sample Promotional Text:")
	fmt.Printf("  %q\n\n", sampleText)

	// Make API call with timeout
	fmt.Printf("Sending request to %s...\n\n", *model)

	startTime := time.Now()
	insights := analyzer.Augment(ctx, sampleText, repo.All(), analysis.Violations)
	duration := time.Since(startTime)

	// The adapter never returns an error; a failed call surfaces as the
	// conservative fallback judgement
	if insights.Fallback {
		fmt.Fprintf(os.Stderr, "❌ ERROR: Model call failed, adapter served the fallback judgement\n\n")
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired OPENAI_API_KEY\n")
		fmt.Fprintf(os.Stderr, "  2. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  3. API quota exceeded\n")
		fmt.Fprintf(os.Stderr, "  4. API service unavailable\n")
		fmt.Fprintf(os.Stderr, "  5. Wrong API key format (should start with 'sk-')\n")
		fmt.Fprintf(os.Stderr, "\nRe-run with --verbose to see the adapter's error log.\n")
		os.Exit(1)
	}

	fmt.Println("✓ Received response from the model!")
	fmt.Printf("API Response Time: %v\n", duration)
	fmt.Println()

	// Display results
	fmt.Println("=== Model Review ===")
	fmt.Printf("Score: %.1f\n", insights.Score)
	fmt.Printf("Status: %s\n", insights.OverallStatus)
	fmt.Printf("Tone: %s (appropriate: %v)\n", insights.Tone.Label, insights.Tone.Appropriate)

	if len(insights.Violations) > 0 {
		fmt.Println("\nModel-flagged violations:")
		for i, v := range insights.Violations {
			fmt.Printf("  %d. [%s] %s\n", i+1, v.Severity, v.Explanation)
		}
	} else {
		fmt.Println("\n(model flagged no additional violations)")
	}

	// Show JSON response
	fmt.Println("\n=== Full Response (JSON) ===")
	jsonBytes, _ := json.MarshalIndent(insights, "", "  ")
	fmt.Println(string(jsonBytes))

	fmt.Println("\n✅ Model Connection Test PASSED!")
	os.Exit(0)
}
