package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/referralab/urgentia/internal/llm"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/pipeline"
	"github.com/referralab/urgentia/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	httpProxy    string
	httpsProxy   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Triage multiple referrals from a file in parallel",
	Long: `Batch processes multiple referrals concurrently:
- Read cases from the input file (blank-line separated, # comments)
- Classify cases in parallel with configurable worker count
- Pace gateway calls per endpoint so the provider is never flooded
- Write one JSON result per case and print a priority tally

Example:
  urgentia batch referrals.txt
  urgentia batch referrals.txt --concurrency 8 --output-dir ./reports
  urgentia batch referrals.txt --provider ollama --model llama3 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./triage-reports", "output directory for per-case results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Pipeline flags shared with triage
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh model calls)")
	batchCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist referral records")
	batchCmd.Flags().StringVar(&storePath, "db", "", "referral database path (default: referrals.db)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable the disclaimer footer")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Provider flags
	batchCmd.Flags().StringVar(&llmProvider, "provider", "azure", "LLM provider (azure, openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "phi-4", "model name")
	batchCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "override the provider base URL")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Urgentia Batch Triage\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Concurrency.Workers = concurrency

	fmt.Fprintf(os.Stderr, "  Provider:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading cases from file...\n")
	cases, err := worker.ReadCasesFromFile(file)
	if err != nil {
		return fmt.Errorf("read cases: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d cases\n", len(cases))
	fmt.Fprintf(os.Stderr, "\n")

	// Create pipeline and batch processor
	p := pipeline.NewPipeline(cfg)
	defer func() { _ = p.Close() }()

	processor := worker.NewBatchProcessor(p, concurrency, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	processor.SetEndpoint(llm.ConfigFromModel(cfg.LLM, cfg.HTTP).Endpoint())

	fmt.Fprintf(os.Stderr, "⚙️  Processing cases with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	results := processor.ProcessCases(ctx, cases, model.ModeReferral)

	// Process results
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0
	tally := make(map[model.Priority]int)

	for i, result := range results {
		label := fmt.Sprintf("case %d", i+1)
		if result == nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: no result\n", label)
			continue
		}
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		successCount++
		c := result.Outcome.Classification
		tally[c.Priority]++

		jsonPath := filepath.Join(outputDir, fmt.Sprintf("case-%03d.json", i+1))
		if err := renderer.RenderJSON(result.Outcome, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", label, err)
			continue
		}

		detail := string(c.Priority)
		if c.Specialty != "" {
			detail += " / " + c.Specialty
		}
		if c.PatientFields.PatientID != "" {
			detail += " / " + c.PatientFields.PatientID
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", label, detail)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d cases\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	for _, prio := range []model.Priority{model.PriorityEmergent, model.PriorityUrgent, model.PriorityRoutine, model.PriorityUnknown} {
		if tally[prio] > 0 {
			fmt.Fprintf(os.Stderr, "  %-9s %d\n", string(prio)+":", tally[prio])
		}
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d cases failed", failureCount)
	}
	return nil
}
