package model

// Evaluation grades, keyed by accuracy and latency thresholds
const (
	GradeExcellent        = "Excellent"
	GradeGood             = "Good"
	GradeAcceptable       = "Acceptable"
	GradeNeedsImprovement = "Needs Improvement"
)

// ReportMetadata identifies one evaluation run
type ReportMetadata struct {
	Timestamp      string `json:"timestamp"`       // RFC 3339 start time
	Endpoint       string `json:"endpoint"`        // gateway base URL
	Provider       string `json:"provider"`        // provider name (azure, openai, ollama, anthropic)
	Model          string `json:"model"`           // model identifier
	EvaluationType string `json:"evaluation_type"` // always "comprehensive_system_evaluation"
}

// ProbeResult is the outcome of a pre-flight connectivity or auth check
type ProbeResult struct {
	OK        bool    `json:"ok"`
	LatencyMS float64 `json:"latency_ms"`
	Detail    string  `json:"detail,omitempty"`
}

// EndpointStats is the latency table for one endpoint, in milliseconds
type EndpointStats struct {
	MeanMS        float64 `json:"mean_ms"`
	MedianMS      float64 `json:"median_ms"`
	P95MS         float64 `json:"p95_ms"`
	MinMS         float64 `json:"min_ms"`
	MaxMS         float64 `json:"max_ms"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorRate     float64 `json:"error_rate"`
	TotalRequests int     `json:"total_requests"`
}

// CaseOutcome is the per-case detail row of an evaluation run
type CaseOutcome struct {
	CaseID       string  `json:"case_id"`
	AIPriority   string  `json:"ai_priority"`   // extracted priority, pre-normalization
	GroundTruth  string  `json:"ground_truth"`  // labeled priority
	Correct      bool    `json:"correct"`       // normalized match
	ProcessingMS float64 `json:"processing_time_ms"`
	Error        string  `json:"error,omitempty"` // set only for failed analyses
}

// AnalysisStats aggregates classification accuracy over the corpus.
// Accuracy counts only successful analyses in its denominator.
type AnalysisStats struct {
	TotalCases         int           `json:"total_cases"`
	SuccessfulAnalyses int           `json:"successful_analyses"`
	FailedAnalyses     int           `json:"failed_analyses"`
	PriorityCorrect    int           `json:"priority_correct"`
	PriorityAccuracy   float64       `json:"priority_accuracy"` // percent, 2dp
	AvgProcessingMS    float64       `json:"avg_processing_time_ms"`
	MedianProcessingMS float64       `json:"median_processing_time_ms"`
	P95ProcessingMS    float64       `json:"p95_processing_time_ms"`
	DetailedResults    []CaseOutcome `json:"detailed_results"`
}

// ResourceStats is a process-level resource snapshot taken after the run
type ResourceStats struct {
	GoVersion      string `json:"go_version"`
	NumCPU         int    `json:"num_cpu"`
	NumGoroutine   int    `json:"num_goroutine"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	TotalAllocs    uint64 `json:"total_alloc_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// GradedMetric compares one measured value against its published benchmark
type GradedMetric struct {
	Measured  float64 `json:"measured"`
	Target    float64 `json:"target"`
	Grade     string  `json:"grade"`
	MetBudget bool    `json:"met_budget"`
}

// BenchmarkComparison grades the run against the published targets
type BenchmarkComparison struct {
	PriorityAccuracy GradedMetric `json:"priority_accuracy"`
	ResponseTime     GradedMetric `json:"response_time"`
}

// EvaluationReport is the full JSON artifact written once per evaluation run
type EvaluationReport struct {
	Metadata             ReportMetadata           `json:"metadata"`
	ServerConnectivity   ProbeResult              `json:"server_connectivity"`
	AuthenticationStatus ProbeResult              `json:"authentication_status"`
	APIPerformance       map[string]EndpointStats `json:"api_performance"`
	AIAnalysis           AnalysisStats            `json:"ai_analysis"`
	SystemResources      ResourceStats            `json:"system_resources"`
	BenchmarkComparison  BenchmarkComparison      `json:"benchmark_comparison"`
	OverallGrade         string                   `json:"overall_grade"`
	TotalDurationSeconds float64                  `json:"total_duration_seconds"`
}
