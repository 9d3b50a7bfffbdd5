package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/referralab/urgentia/internal/eval"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/notify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	monitorSchedule string
	monitorRunNow   bool
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run evaluations on a cron schedule until interrupted",
	Long: `Monitor keeps re-running the corpus evaluation on a schedule, so
accuracy or latency drift at the provider shows up in the report
artifacts (and Slack, when configured) without anyone babysitting it.

The schedule is a standard 5-field cron expression
(minute hour day-of-month month day-of-week).

Example:
  urgentia monitor                          # every 6 hours
  urgentia monitor --schedule "0 7 * * *"   # daily at 07:00
  urgentia monitor --schedule "*/30 * * * *" --run-now`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVar(&monitorSchedule, "schedule", "0 */6 * * *", "cron expression for evaluation runs")
	monitorCmd.Flags().BoolVar(&monitorRunNow, "run-now", false, "run one evaluation immediately, then follow the schedule")
	monitorCmd.Flags().StringVar(&evalOutputDir, "output-dir", "", "directory for JSON reports (default: current directory)")
	monitorCmd.Flags().StringVar(&slackChannel, "slack-channel", "", "post summaries to this Slack channel (uses SLACK_BOT_TOKEN)")
	monitorCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "timeout for each evaluation run")

	// Provider flags
	monitorCmd.Flags().StringVar(&llmProvider, "provider", "azure", "LLM provider (azure, openai, anthropic, ollama)")
	monitorCmd.Flags().StringVar(&llmModel, "model", "phi-4", "model name")
	monitorCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "override the provider base URL")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(monitorSchedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", monitorSchedule, err)
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Monitoring %s/%s (cron: %s)\n", cfg.LLM.Provider, cfg.LLM.Model, monitorSchedule)

	if monitorRunNow {
		monitorRun(ctx, cfg)
	}

	for {
		next := sched.Next(time.Now())
		fmt.Fprintf(os.Stderr, "Next evaluation at %s (in %s)\n",
			next.Format("Mon Jan 2 15:04"), time.Until(next).Round(time.Minute))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			fmt.Fprintf(os.Stderr, "Monitor stopped\n")
			return nil
		case <-timer.C:
		}

		monitorRun(ctx, cfg)
	}
}

// monitorRun executes one scheduled evaluation. Failures are logged and
// the schedule stays alive; a flaky provider is exactly what monitoring
// is for.
func monitorRun(ctx context.Context, cfg *model.Config) {
	runCtx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	report, runErr := runEvaluation(runCtx, cfg)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: Evaluation failed: %v\n", runErr)
	}
	if report == nil {
		return
	}

	path, err := eval.WriteReport(report, cfg.Eval.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to write report: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "✓ Report written: %s\n", path)
	}

	if runErr == nil {
		fmt.Fprintf(os.Stderr, "✓ Accuracy %.2f%%, grade: %s\n",
			report.AIAnalysis.PriorityAccuracy, report.OverallGrade)

		notifier := notify.New(cfg.Notify)
		if notifier.Enabled() {
			if err := notifier.PostEvaluation(runCtx, report); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to post Slack summary: %v\n", err)
			}
		}
	}
}
