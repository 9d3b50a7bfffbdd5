package eval

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/pipeline"
	"github.com/referralab/urgentia/internal/worker"
)

// connectivityProbes is how many times the gateway probe is repeated to
// build its latency table.
const connectivityProbes = 5

// Runner is the slice of the triage pipeline the evaluator drives
type Runner interface {
	Process(ctx context.Context, input model.CaseInput) (*pipeline.Result, error)
}

// HealthProber runs the pre-flight gateway checks
type HealthProber interface {
	Endpoint() string
	Connectivity(ctx context.Context) model.ProbeResult
	Authentication(ctx context.Context) model.ProbeResult
}

// Evaluator replays the labeled corpus through the pipeline and grades
// the results against the published benchmarks
type Evaluator struct {
	runner  Runner
	health  HealthProber
	limiter *worker.Limiter
	dataset *model.Dataset
	config  *model.Config
	out     io.Writer
}

// NewEvaluator loads the embedded corpus and wires the evaluator to a
// pipeline and its health checker
func NewEvaluator(cfg *model.Config, runner Runner, health HealthProber) (*Evaluator, error) {
	ds, err := LoadDataset()
	if err != nil {
		return nil, err
	}

	var limiter *worker.Limiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	return &Evaluator{
		runner:  runner,
		health:  health,
		limiter: limiter,
		dataset: ds,
		config:  cfg,
		out:     os.Stderr,
	}, nil
}

// Dataset returns the loaded corpus
func (e *Evaluator) Dataset() *model.Dataset {
	return e.dataset
}

// Run executes the full evaluation: pre-flight probes, the paced corpus
// replay, and benchmark grading. A pre-flight failure returns the
// partial report alongside the error so callers can still record it.
func (e *Evaluator) Run(ctx context.Context) (*model.EvaluationReport, error) {
	start := time.Now()
	report := &model.EvaluationReport{
		Metadata: model.ReportMetadata{
			Timestamp:      start.UTC().Format(time.RFC3339),
			Endpoint:       e.health.Endpoint(),
			Provider:       e.config.LLM.Provider,
			Model:          e.config.LLM.Model,
			EvaluationType: "comprehensive_system_evaluation",
		},
		APIPerformance: make(map[string]model.EndpointStats),
	}

	fmt.Fprintf(e.out, "Checking gateway connectivity...\n")
	report.ServerConnectivity = e.health.Connectivity(ctx)
	if !report.ServerConnectivity.OK {
		report.TotalDurationSeconds = round2(time.Since(start).Seconds())
		return report, fmt.Errorf("gateway not reachable: %s", report.ServerConnectivity.Detail)
	}

	fmt.Fprintf(e.out, "Checking credentials...\n")
	report.AuthenticationStatus = e.health.Authentication(ctx)
	if !report.AuthenticationStatus.OK {
		report.TotalDurationSeconds = round2(time.Since(start).Seconds())
		return report, fmt.Errorf("authentication failed: %s", report.AuthenticationStatus.Detail)
	}

	fmt.Fprintf(e.out, "Measuring gateway latency...\n")
	report.APIPerformance["connectivity"] = e.probeStats(ctx, connectivityProbes)

	fmt.Fprintf(e.out, "Replaying %d labeled cases...\n", len(e.dataset.Cases))
	report.AIAnalysis = e.evaluateAccuracy(ctx)
	report.APIPerformance["classification"] = outcomeStats(report.AIAnalysis.DetailedResults)

	report.SystemResources = snapshotResources()
	report.BenchmarkComparison = compareBenchmarks(report.AIAnalysis, e.dataset.Benchmarks)
	report.OverallGrade = overallGrade(report.BenchmarkComparison)
	report.TotalDurationSeconds = round2(time.Since(start).Seconds())

	return report, nil
}

// evaluateAccuracy replays every corpus case through the pipeline and
// scores the extracted priority against the label
func (e *Evaluator) evaluateAccuracy(ctx context.Context) model.AnalysisStats {
	stats := model.AnalysisStats{
		TotalCases:      len(e.dataset.Cases),
		DetailedResults: make([]model.CaseOutcome, 0, len(e.dataset.Cases)),
	}
	endpoint := e.health.Endpoint()
	var times []float64

	for i, tc := range e.dataset.Cases {
		// A dead context ends the run; cases that never ran stay out
		// of the success and failure totals.
		if ctx.Err() != nil {
			break
		}

		truth := strings.ToLower(tc.GroundTruth.Priority)

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, endpoint); err != nil {
				stats.FailedAnalyses++
				stats.DetailedResults = append(stats.DetailedResults, model.CaseOutcome{
					CaseID:      tc.CaseID,
					GroundTruth: truth,
					Error:       err.Error(),
				})
				continue
			}
		}

		caseStart := time.Now()
		result, err := e.runner.Process(ctx, model.CaseInput{Text: tc.ReferralText, Mode: model.ModeReferral})
		elapsed := float64(time.Since(caseStart).Microseconds()) / 1000.0

		if err != nil {
			stats.FailedAnalyses++
			stats.DetailedResults = append(stats.DetailedResults, model.CaseOutcome{
				CaseID:      tc.CaseID,
				GroundTruth: truth,
				Error:       err.Error(),
			})
			fmt.Fprintf(e.out, "  [%d/%d] %s: failed: %v\n", i+1, stats.TotalCases, tc.CaseID, err)
			continue
		}

		if result.Classification.GatewayFailed {
			stats.FailedAnalyses++
			times = append(times, elapsed)
			stats.DetailedResults = append(stats.DetailedResults, model.CaseOutcome{
				CaseID:       tc.CaseID,
				GroundTruth:  truth,
				ProcessingMS: round2(elapsed),
				Error:        result.Classification.RawText,
			})
			fmt.Fprintf(e.out, "  [%d/%d] %s: failed: %s\n", i+1, stats.TotalCases, tc.CaseID, result.Classification.RawText)
			continue
		}

		stats.SuccessfulAnalyses++
		times = append(times, elapsed)

		aiPriority := string(result.Classification.Priority)
		correct := NormalizePriority(aiPriority) == NormalizePriority(truth)
		if correct {
			stats.PriorityCorrect++
		}

		stats.DetailedResults = append(stats.DetailedResults, model.CaseOutcome{
			CaseID:       tc.CaseID,
			AIPriority:   aiPriority,
			GroundTruth:  truth,
			Correct:      correct,
			ProcessingMS: round2(elapsed),
		})

		mark := "✓"
		if !correct {
			mark = "✗"
		}
		fmt.Fprintf(e.out, "  [%d/%d] %s: %s %s (%.0f ms)\n", i+1, stats.TotalCases, tc.CaseID, strings.ToLower(aiPriority), mark, elapsed)
	}

	if stats.SuccessfulAnalyses > 0 {
		stats.PriorityAccuracy = round2(float64(stats.PriorityCorrect) / float64(stats.SuccessfulAnalyses) * 100)
	}
	if len(times) > 0 {
		stats.AvgProcessingMS = round2(mean(times))
		stats.MedianProcessingMS = round2(median(times))
		stats.P95ProcessingMS = round2(p95(times))
	}

	return stats
}

// probeStats repeats the connectivity probe to build a latency table for
// the gateway itself, independent of model inference time
func (e *Evaluator) probeStats(ctx context.Context, n int) model.EndpointStats {
	var times []float64
	success := 0

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		probe := e.health.Connectivity(ctx)
		times = append(times, probe.LatencyMS)
		if probe.OK {
			success++
		}
	}

	return latencyStats(times, success, len(times)-success)
}

// outcomeStats derives the classification latency table from the
// per-case rows. Rows without a recorded time never reached the
// gateway and are left out of the latency columns.
func outcomeStats(outcomes []model.CaseOutcome) model.EndpointStats {
	var times []float64
	success := 0

	for _, o := range outcomes {
		if o.ProcessingMS > 0 {
			times = append(times, o.ProcessingMS)
		}
		if o.Error == "" {
			success++
		}
	}

	return latencyStats(times, success, len(outcomes)-success)
}

func snapshotResources() model.ResourceStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return model.ResourceStats{
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
		HeapAllocBytes: m.HeapAlloc,
		TotalAllocs:    m.TotalAlloc,
		NumGC:          m.NumGC,
	}
}
