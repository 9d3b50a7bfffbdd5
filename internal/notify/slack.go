package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/referralab/urgentia/internal/model"
)

// Client is the slice of the Slack API the notifier uses
type Client interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts evaluation summaries to a Slack channel. With no
// channel or token configured it is disabled and posts nothing, so
// local runs stay quiet.
type Notifier struct {
	client  Client
	channel string
}

// New builds a notifier from config. The token comes from
// SLACK_BOT_TOKEN, never from a config file.
func New(cfg model.NotifyConfig) *Notifier {
	n := &Notifier{channel: cfg.SlackChannel}
	if cfg.SlackChannel != "" && cfg.SlackToken != "" {
		n.client = slack.New(cfg.SlackToken)
	}
	return n
}

// NewWithClient wires a prebuilt client, for tests
func NewWithClient(client Client, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

// Enabled reports whether the notifier will actually post
func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil && n.channel != ""
}

// PostEvaluation posts a one-message summary of an evaluation run.
// Callers log the returned error and move on; a missed notification
// never fails the run itself.
func (n *Notifier) PostEvaluation(ctx context.Context, report *model.EvaluationReport) error {
	if !n.Enabled() {
		return nil
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(headline(report), false),
		slack.MsgOptionBlocks(summaryBlocks(report)...),
	)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

func headline(r *model.EvaluationReport) string {
	return fmt.Sprintf("Referral triage evaluation: %s", r.OverallGrade)
}

func summaryBlocks(r *model.EvaluationReport) []slack.Block {
	a := r.AIAnalysis
	body := fmt.Sprintf(
		"*Provider:* %s/%s\n*Accuracy:* %.2f%% (%d/%d correct, %d failed)\n*Latency:* avg %.0f ms, p95 %.0f ms\n*Duration:* %.1f s",
		r.Metadata.Provider, r.Metadata.Model,
		a.PriorityAccuracy, a.PriorityCorrect, a.SuccessfulAnalyses, a.FailedAnalyses,
		a.AvgProcessingMS, a.P95ProcessingMS,
		r.TotalDurationSeconds,
	)

	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, headline(r), false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, body, false, false),
			nil, nil,
		),
	}
}
