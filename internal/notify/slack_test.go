package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/slack-go/slack"

	"github.com/referralab/urgentia/internal/model"
)

func newMockSlackAPI(t *testing.T, ok bool, apiErr string) (*slack.Client, *int, *url.Values) {
	t.Helper()

	postCalls := 0
	var lastForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		if path != "chat.postMessage" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
			return
		}
		postCalls++
		_ = r.ParseForm()
		lastForm = r.Form
		resp := map[string]any{"ok": ok, "channel": "C123", "ts": "1724300000.000100"}
		if apiErr != "" {
			resp["error"] = apiErr
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	api := slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/"))
	return api, &postCalls, &lastForm
}

func sampleReport() *model.EvaluationReport {
	return &model.EvaluationReport{
		Metadata: model.ReportMetadata{Provider: "azure", Model: "phi-4"},
		AIAnalysis: model.AnalysisStats{
			TotalCases:         60,
			SuccessfulAnalyses: 58,
			FailedAnalyses:     2,
			PriorityCorrect:    53,
			PriorityAccuracy:   91.38,
			AvgProcessingMS:    842,
			P95ProcessingMS:    1920,
		},
		OverallGrade:         "A - Excellent Performance",
		TotalDurationSeconds: 73.02,
	}
}

func TestNotifier_PostEvaluation(t *testing.T) {
	api, postCalls, lastForm := newMockSlackAPI(t, true, "")
	n := NewWithClient(api, "C123")

	if !n.Enabled() {
		t.Fatal("Expected notifier to be enabled")
	}
	if err := n.PostEvaluation(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if *postCalls != 1 {
		t.Fatalf("Expected 1 chat.postMessage call, got %d", *postCalls)
	}

	if got := lastForm.Get("channel"); got != "C123" {
		t.Errorf("Expected channel C123, got %q", got)
	}
	if got := lastForm.Get("text"); !strings.Contains(got, "A - Excellent Performance") {
		t.Errorf("Expected grade in fallback text, got %q", got)
	}
	blocks := lastForm.Get("blocks")
	for _, want := range []string{"Referral triage evaluation", "azure/phi-4", "91.38%", "53/58"} {
		if !strings.Contains(blocks, want) {
			t.Errorf("Expected blocks to contain %q\n%s", want, blocks)
		}
	}
}

func TestNotifier_PostEvaluation_APIError(t *testing.T) {
	api, _, _ := newMockSlackAPI(t, false, "channel_not_found")
	n := NewWithClient(api, "C404")

	err := n.PostEvaluation(context.Background(), sampleReport())
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("Expected channel_not_found, got %v", err)
	}
}

func TestNotifier_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.NotifyConfig
	}{
		{"no channel", model.NotifyConfig{SlackToken: "xoxb-test"}},
		{"no token", model.NotifyConfig{SlackChannel: "C123"}},
		{"nothing", model.NotifyConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.cfg)
			if n.Enabled() {
				t.Error("Expected notifier to be disabled")
			}
			if err := n.PostEvaluation(context.Background(), sampleReport()); err != nil {
				t.Errorf("Expected silent no-op, got %v", err)
			}
		})
	}
}

func TestNotifier_NilReceiver(t *testing.T) {
	var n *Notifier
	if n.Enabled() {
		t.Error("Expected nil notifier to be disabled")
	}
	if err := n.PostEvaluation(context.Background(), sampleReport()); err != nil {
		t.Errorf("Expected silent no-op, got %v", err)
	}
}

func TestNotifier_Configured(t *testing.T) {
	n := New(model.NotifyConfig{SlackChannel: "C123", SlackToken: "xoxb-test"})
	if !n.Enabled() {
		t.Error("Expected notifier to be enabled")
	}
}
