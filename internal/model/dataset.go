package model

// GroundTruth is the labeled answer for one corpus case
type GroundTruth struct {
	Priority               string `yaml:"priority" json:"priority"`
	Specialty              string `yaml:"specialty" json:"specialty"`
	UrgencyScore           int    `yaml:"urgency_score" json:"urgency_score"`
	ExpectedResponseTimeMS int    `yaml:"expected_response_time_ms" json:"expected_response_time_ms"`
}

// LabeledCase is one referral from the evaluation corpus
type LabeledCase struct {
	CaseID       string      `yaml:"case_id" json:"case_id"`
	ReferralText string      `yaml:"referral_text" json:"referral_text"`
	GroundTruth  GroundTruth `yaml:"ground_truth" json:"ground_truth"`
}

// ResponseTimeBenchmark is the latency target for one endpoint
type ResponseTimeBenchmark struct {
	TargetAvgMS   float64 `yaml:"target_avg_ms" json:"target_avg_ms"`
	AcceptableMax float64 `yaml:"acceptable_max_ms" json:"acceptable_max_ms"`
}

// AccuracyBenchmark is the accuracy target for one extraction dimension
type AccuracyBenchmark struct {
	Target    float64 `yaml:"target_accuracy" json:"target_accuracy"`
	Excellent float64 `yaml:"excellent_accuracy" json:"excellent_accuracy"`
	Baseline  float64 `yaml:"baseline_accuracy" json:"baseline_accuracy"`
}

// Benchmarks are the published performance targets the evaluator grades
// against
type Benchmarks struct {
	ResponseTimes map[string]ResponseTimeBenchmark `yaml:"response_times" json:"response_times"`
	Accuracy      map[string]AccuracyBenchmark     `yaml:"accuracy" json:"accuracy"`
}

// Dataset is the embedded evaluation corpus: labeled cases plus the
// benchmark targets
type Dataset struct {
	Cases      []LabeledCase `yaml:"cases" json:"cases"`
	Benchmarks Benchmarks    `yaml:"benchmarks" json:"benchmarks"`
}

// CaseByID returns the labeled case with the given id, or nil
func (d *Dataset) CaseByID(id string) *LabeledCase {
	for i := range d.Cases {
		if d.Cases[i].CaseID == id {
			return &d.Cases[i]
		}
	}
	return nil
}

// PriorityCounts returns the number of corpus cases per ground-truth priority
func (d *Dataset) PriorityCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range d.Cases {
		counts[c.GroundTruth.Priority]++
	}
	return counts
}
