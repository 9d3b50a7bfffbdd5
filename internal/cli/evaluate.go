package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/referralab/urgentia/internal/eval"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/notify"
	"github.com/referralab/urgentia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	evalOutputDir string
	evalTimeout   time.Duration
	slackChannel  string
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Replay the labeled corpus and grade classification accuracy",
	Long: `Evaluate runs the built-in labeled corpus (60 referrals with known
priorities) through the live pipeline and grades the system:
- Pre-flight connectivity and credential checks against the gateway
- Paced replay of every corpus case
- Priority accuracy, latency percentiles, and a resource snapshot
- Benchmark grades and an overall letter grade
- A JSON report artifact, and optionally a Slack summary

Example:
  urgentia evaluate
  urgentia evaluate --output-dir ./eval --no-cache
  urgentia evaluate --provider ollama --model llama3
  urgentia evaluate --slack-channel C0123456789`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalOutputDir, "output-dir", "", "directory for the JSON report (default: current directory)")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for the evaluation run")
	evaluateCmd.Flags().StringVar(&slackChannel, "slack-channel", "", "post the summary to this Slack channel (uses SLACK_BOT_TOKEN)")

	// Pipeline flags shared with triage
	evaluateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh model calls)")
	evaluateCmd.Flags().StringVar(&storePath, "db", "", "referral database path (default: referrals.db)")

	// Provider flags
	evaluateCmd.Flags().StringVar(&llmProvider, "provider", "azure", "LLM provider (azure, openai, anthropic, ollama)")
	evaluateCmd.Flags().StringVar(&llmModel, "model", "phi-4", "model name")
	evaluateCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "override the provider base URL")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if evalOutputDir != "" {
		cfg.Eval.OutputDir = evalOutputDir
	}
	if slackChannel != "" {
		cfg.Notify.SlackChannel = slackChannel
	}
	cfg.Notify.SlackToken = os.Getenv("SLACK_BOT_TOKEN")

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Urgentia System Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Provider:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Eval.OutputDir)
	fmt.Fprintf(os.Stderr, "\n")

	report, runErr := runEvaluation(ctx, cfg)
	if report == nil {
		return runErr
	}

	// The artifact and summary are written even for a run that failed
	// pre-flight, so the failure itself is on record.
	path, err := eval.WriteReport(report, cfg.Eval.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to write report: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Report written: %s\n", path)
	}

	eval.PrintSummary(os.Stderr, report)

	if runErr == nil {
		notifier := notify.New(cfg.Notify)
		if notifier.Enabled() {
			if err := notifier.PostEvaluation(ctx, report); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to post Slack summary: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "✓ Posted summary to %s\n", cfg.Notify.SlackChannel)
			}
		}
	}

	return runErr
}

// runEvaluation wires a pipeline to the evaluator and executes one run
func runEvaluation(ctx context.Context, cfg *model.Config) (*model.EvaluationReport, error) {
	p := pipeline.NewPipeline(cfg)
	defer func() { _ = p.Close() }()

	health := pipeline.NewHealthChecker(cfg, p.Provider())
	evaluator, err := eval.NewEvaluator(cfg, p, health)
	if err != nil {
		return nil, err
	}

	return evaluator.Run(ctx)
}
