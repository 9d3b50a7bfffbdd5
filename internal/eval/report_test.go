package eval

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/referralab/urgentia/internal/model"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "routine"},
		{"Emergent", "emergent"},
		{"EMERGENCY", "emergent"},
		{"critical", "emergent"},
		{"Urgent", "urgent"},
		{"high", "urgent"},
		{" urgent ", "urgent"},
		{"Routine", "routine"},
		{"Unknown", "routine"},
		{"see clinical notes", "routine"},
	}

	for _, tt := range tests {
		if got := NormalizePriority(tt.in); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccuracyGrade(t *testing.T) {
	bench := model.AccuracyBenchmark{Target: 85, Excellent: 90, Baseline: 70}
	tests := []struct {
		accuracy float64
		want     string
	}{
		{95, model.GradeExcellent},
		{90, model.GradeExcellent},
		{87, model.GradeGood},
		{85, model.GradeGood},
		{75, model.GradeAcceptable},
		{70, model.GradeAcceptable},
		{60, model.GradeNeedsImprovement},
		{0, model.GradeNeedsImprovement},
	}

	for _, tt := range tests {
		if got := accuracyGrade(tt.accuracy, bench); got != tt.want {
			t.Errorf("accuracyGrade(%.0f) = %q, want %q", tt.accuracy, got, tt.want)
		}
	}
}

func TestResponseTimeGrade(t *testing.T) {
	bench := model.ResponseTimeBenchmark{TargetAvgMS: 3000, AcceptableMax: 10000}
	tests := []struct {
		avg  float64
		want string
	}{
		{1500, model.GradeExcellent},
		{3000, model.GradeExcellent},
		{4500, model.GradeGood},
		{6000, model.GradeGood},
		{8000, model.GradeAcceptable},
		{10000, model.GradeAcceptable},
		{12000, model.GradeNeedsImprovement},
	}

	for _, tt := range tests {
		if got := responseTimeGrade(tt.avg, bench); got != tt.want {
			t.Errorf("responseTimeGrade(%.0f) = %q, want %q", tt.avg, got, tt.want)
		}
	}
}

func TestOverallGrade(t *testing.T) {
	comparison := func(acc, rt string) model.BenchmarkComparison {
		return model.BenchmarkComparison{
			PriorityAccuracy: model.GradedMetric{Grade: acc},
			ResponseTime:     model.GradedMetric{Grade: rt},
		}
	}

	tests := []struct {
		acc, rt string
		want    string
	}{
		{model.GradeExcellent, model.GradeExcellent, OverallA},
		{model.GradeExcellent, model.GradeGood, OverallA},
		{model.GradeGood, model.GradeGood, OverallB},
		{model.GradeGood, model.GradeAcceptable, OverallC},
		{model.GradeAcceptable, model.GradeAcceptable, OverallD},
		{model.GradeNeedsImprovement, model.GradeExcellent, OverallC},
		{model.GradeNeedsImprovement, model.GradeNeedsImprovement, OverallD},
	}

	for _, tt := range tests {
		if got := overallGrade(comparison(tt.acc, tt.rt)); got != tt.want {
			t.Errorf("overallGrade(%s, %s) = %q, want %q", tt.acc, tt.rt, got, tt.want)
		}
	}
}

func TestLatencyStats(t *testing.T) {
	stats := latencyStats([]float64{300, 100, 500, 200, 400}, 4, 1)

	if stats.MeanMS != 300 {
		t.Errorf("Expected mean 300, got %.2f", stats.MeanMS)
	}
	if stats.MedianMS != 300 {
		t.Errorf("Expected median 300, got %.2f", stats.MedianMS)
	}
	if stats.P95MS != 500 {
		t.Errorf("Expected p95 500, got %.2f", stats.P95MS)
	}
	if stats.MinMS != 100 || stats.MaxMS != 500 {
		t.Errorf("Expected min 100 max 500, got %.2f/%.2f", stats.MinMS, stats.MaxMS)
	}
	if stats.SuccessRate != 80 || stats.ErrorRate != 20 {
		t.Errorf("Expected 80/20 rates, got %.0f/%.0f", stats.SuccessRate, stats.ErrorRate)
	}
	if stats.TotalRequests != 5 {
		t.Errorf("Expected 5 requests, got %d", stats.TotalRequests)
	}
}

func TestLatencyStats_EvenMedian(t *testing.T) {
	stats := latencyStats([]float64{100, 200, 300, 400}, 4, 0)
	if stats.MedianMS != 250 {
		t.Errorf("Expected median 250, got %.2f", stats.MedianMS)
	}
}

func TestLatencyStats_Empty(t *testing.T) {
	stats := latencyStats(nil, 0, 0)
	if stats.TotalRequests != 0 || stats.SuccessRate != 0 || stats.MeanMS != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestOutcomeStats_SkipsUntimedRows(t *testing.T) {
	stats := outcomeStats([]model.CaseOutcome{
		{CaseID: "A", Correct: true, ProcessingMS: 100},
		{CaseID: "B", Error: "classify: boom"}, // never reached the gateway
		{CaseID: "C", Error: "Error from API: 503", ProcessingMS: 300},
	})

	if stats.TotalRequests != 3 {
		t.Errorf("Expected 3 requests, got %d", stats.TotalRequests)
	}
	if stats.MeanMS != 200 {
		t.Errorf("Expected mean over the 2 timed rows, got %.2f", stats.MeanMS)
	}
	if stats.SuccessRate != round2(100.0/3) {
		t.Errorf("Expected one success in three, got %.2f", stats.SuccessRate)
	}
}

func TestWriteReport(t *testing.T) {
	report := &model.EvaluationReport{
		Metadata: model.ReportMetadata{
			Timestamp:      "2026-03-14T10:30:00Z",
			Endpoint:       "https://gateway.test/v1",
			Provider:       "azure",
			Model:          "phi-4",
			EvaluationType: "comprehensive_system_evaluation",
		},
		OverallGrade:         OverallB,
		TotalDurationSeconds: 42.17,
	}

	dir := t.TempDir()
	path, err := WriteReport(report, dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("Expected artifact in %s, got %s", dir, path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "evaluation_results_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("Unexpected artifact name %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("Expected trailing newline")
	}

	var back model.EvaluationReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if back.Metadata.Model != "phi-4" || back.OverallGrade != OverallB {
		t.Errorf("Round trip mismatch: %+v", back.Metadata)
	}
	if back.TotalDurationSeconds != 42.17 {
		t.Errorf("Expected duration 42.17, got %.2f", back.TotalDurationSeconds)
	}
}

func TestWriteReport_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	path, err := WriteReport(&model.EvaluationReport{}, dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected artifact on disk, got %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	report := &model.EvaluationReport{
		Metadata: model.ReportMetadata{
			Endpoint: "https://gateway.test/v1",
			Provider: "azure",
			Model:    "phi-4",
		},
		ServerConnectivity:   model.ProbeResult{OK: true, LatencyMS: 12.5, Detail: "HTTP 200"},
		AuthenticationStatus: model.ProbeResult{OK: false, Detail: "credential rejected or provider unreachable"},
		AIAnalysis: model.AnalysisStats{
			TotalCases:         60,
			SuccessfulAnalyses: 58,
			FailedAnalyses:     2,
			PriorityCorrect:    53,
			PriorityAccuracy:   91.38,
			AvgProcessingMS:    842.1,
		},
		BenchmarkComparison: model.BenchmarkComparison{
			PriorityAccuracy: model.GradedMetric{Measured: 91.38, Target: 85, Grade: model.GradeExcellent, MetBudget: true},
			ResponseTime:     model.GradedMetric{Measured: 842.1, Target: 3000, Grade: model.GradeExcellent, MetBudget: true},
		},
		OverallGrade:         OverallA,
		TotalDurationSeconds: 73.02,
	}

	var buf bytes.Buffer
	PrintSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"System Evaluation Summary",
		"azure/phi-4",
		"✓ HTTP 200",
		"✗ credential rejected",
		"91.38% (53/58 correct)",
		"A - Excellent Performance",
		"73.02 s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q\n%s", want, out)
		}
	}
}
