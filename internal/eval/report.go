package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/referralab/urgentia/internal/model"
)

// Overall letter grades, averaged from the per-benchmark grade points
const (
	OverallA = "A - Excellent Performance"
	OverallB = "B - Good Performance"
	OverallC = "C - Satisfactory Performance"
	OverallD = "D - Needs Improvement"
)

// NormalizePriority folds a priority label into one of the three scoring
// classes. Synonyms the model is known to emit count as their class;
// anything unrecognized, including an empty extraction, folds to routine
// so a vague answer is never scored as an escalation.
func NormalizePriority(priority string) string {
	if priority == "" {
		return "routine"
	}
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "emergent", "emergency", "critical":
		return "emergent"
	case "urgent", "high":
		return "urgent"
	default:
		return "routine"
	}
}

// compareBenchmarks grades the measured accuracy and latency against the
// corpus benchmark tables
func compareBenchmarks(analysis model.AnalysisStats, benchmarks model.Benchmarks) model.BenchmarkComparison {
	acc := benchmarks.Accuracy["priority_classification"]
	if acc.Target == 0 {
		acc = model.AccuracyBenchmark{Target: 85, Excellent: 90, Baseline: 70}
	}
	rt := benchmarks.ResponseTimes["ai_analysis"]
	if rt.TargetAvgMS == 0 {
		rt = model.ResponseTimeBenchmark{TargetAvgMS: 3000, AcceptableMax: 10000}
	}

	return model.BenchmarkComparison{
		PriorityAccuracy: model.GradedMetric{
			Measured:  analysis.PriorityAccuracy,
			Target:    acc.Target,
			Grade:     accuracyGrade(analysis.PriorityAccuracy, acc),
			MetBudget: analysis.PriorityAccuracy >= acc.Target,
		},
		ResponseTime: model.GradedMetric{
			Measured:  analysis.AvgProcessingMS,
			Target:    rt.TargetAvgMS,
			Grade:     responseTimeGrade(analysis.AvgProcessingMS, rt),
			MetBudget: analysis.AvgProcessingMS <= rt.TargetAvgMS,
		},
	}
}

func accuracyGrade(accuracy float64, bench model.AccuracyBenchmark) string {
	switch {
	case accuracy >= bench.Excellent:
		return model.GradeExcellent
	case accuracy >= bench.Target:
		return model.GradeGood
	case accuracy >= bench.Baseline:
		return model.GradeAcceptable
	default:
		return model.GradeNeedsImprovement
	}
}

func responseTimeGrade(avgMS float64, bench model.ResponseTimeBenchmark) string {
	switch {
	case avgMS <= bench.TargetAvgMS:
		return model.GradeExcellent
	case avgMS <= 2*bench.TargetAvgMS:
		return model.GradeGood
	case avgMS <= bench.AcceptableMax:
		return model.GradeAcceptable
	default:
		return model.GradeNeedsImprovement
	}
}

func gradePoints(grade string) int {
	switch grade {
	case model.GradeExcellent:
		return 4
	case model.GradeGood:
		return 3
	case model.GradeAcceptable:
		return 2
	default:
		return 1
	}
}

func overallGrade(c model.BenchmarkComparison) string {
	avg := float64(gradePoints(c.PriorityAccuracy.Grade)+gradePoints(c.ResponseTime.Grade)) / 2.0
	switch {
	case avg >= 3.5:
		return OverallA
	case avg >= 3.0:
		return OverallB
	case avg >= 2.5:
		return OverallC
	default:
		return OverallD
	}
}

// WriteReport writes the JSON artifact into dir and returns its path
func WriteReport(report *model.EvaluationReport, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("evaluation_results_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

// PrintSummary renders the human-readable evaluation summary
func PrintSummary(w io.Writer, r *model.EvaluationReport) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  System Evaluation Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Endpoint:        %s\n", r.Metadata.Endpoint)
	fmt.Fprintf(w, "  Provider:        %s/%s\n", r.Metadata.Provider, r.Metadata.Model)
	fmt.Fprintf(w, "  Connectivity:    %s\n", probeLine(r.ServerConnectivity))
	fmt.Fprintf(w, "  Authentication:  %s\n", probeLine(r.AuthenticationStatus))
	fmt.Fprintln(w)

	a := r.AIAnalysis
	fmt.Fprintln(w, "  Priority classification:")
	fmt.Fprintf(w, "    Cases:        %d (%d succeeded, %d failed)\n", a.TotalCases, a.SuccessfulAnalyses, a.FailedAnalyses)
	fmt.Fprintf(w, "    Accuracy:     %.2f%% (%d/%d correct)\n", a.PriorityAccuracy, a.PriorityCorrect, a.SuccessfulAnalyses)
	fmt.Fprintf(w, "    Latency:      avg %.1f ms, median %.1f ms, p95 %.1f ms\n", a.AvgProcessingMS, a.MedianProcessingMS, a.P95ProcessingMS)
	fmt.Fprintln(w)

	b := r.BenchmarkComparison
	fmt.Fprintln(w, "  Benchmarks:")
	fmt.Fprintf(w, "    Accuracy:      %s %s (measured %.2f%%, target %.0f%%)\n",
		budgetMark(b.PriorityAccuracy.MetBudget), b.PriorityAccuracy.Grade, b.PriorityAccuracy.Measured, b.PriorityAccuracy.Target)
	fmt.Fprintf(w, "    Response time: %s %s (measured %.1f ms, target %.0f ms)\n",
		budgetMark(b.ResponseTime.MetBudget), b.ResponseTime.Grade, b.ResponseTime.Measured, b.ResponseTime.Target)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Overall grade:   %s\n", r.OverallGrade)
	fmt.Fprintf(w, "  Duration:        %.2f s\n", r.TotalDurationSeconds)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

func probeLine(p model.ProbeResult) string {
	if p.OK {
		return fmt.Sprintf("✓ %s (%.1f ms)", p.Detail, p.LatencyMS)
	}
	return fmt.Sprintf("✗ %s", p.Detail)
}

func budgetMark(met bool) string {
	if met {
		return "✓"
	}
	return "✗"
}

// latencyStats assembles the per-endpoint table from raw samples
func latencyStats(times []float64, success, failures int) model.EndpointStats {
	total := success + failures
	stats := model.EndpointStats{TotalRequests: total}
	if total > 0 {
		stats.SuccessRate = round2(float64(success) / float64(total) * 100)
		stats.ErrorRate = round2(float64(failures) / float64(total) * 100)
	}
	if len(times) == 0 {
		return stats
	}

	stats.MeanMS = round2(mean(times))
	stats.MedianMS = round2(median(times))
	stats.P95MS = round2(p95(times))
	stats.MinMS = round2(minOf(times))
	stats.MaxMS = round2(maxOf(times))
	return stats
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// p95 follows the nearest-rank convention: the sample at index
// int(0.95*n) of the sorted slice.
func p95(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	idx := int(0.95 * float64(len(s)))
	if idx >= len(s) {
		idx = len(s) - 1
	}
	return s[idx]
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
