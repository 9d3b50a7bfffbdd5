package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/pipeline"
)

// Triager runs one case through the classification pipeline
type Triager interface {
	Process(ctx context.Context, input model.CaseInput) (*pipeline.Result, error)
}

// CaseJob is one referral case queued for classification
type CaseJob struct {
	Index    int
	Text     string
	Mode     model.Mode
	Triager  Triager
	Limiter  *Limiter
	Endpoint string
}

// Execute classifies the case, pacing the gateway call through the shared
// limiter when one is configured
func (j *CaseJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Endpoint); err != nil {
			return &CaseResult{Index: j.Index, Text: j.Text, Error: err}
		}
	}

	outcome, err := j.Triager.Process(ctx, model.CaseInput{Text: j.Text, Mode: j.Mode})
	if err != nil {
		return &CaseResult{Index: j.Index, Text: j.Text, Error: err}
	}

	return &CaseResult{Index: j.Index, Text: j.Text, Outcome: outcome}
}

// CaseResult is the outcome of one batched case
type CaseResult struct {
	Index   int
	Text    string
	Outcome *pipeline.Result
	Error   error
}

// GetError returns the error from the case result
func (r *CaseResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies multiple referral cases concurrently
type BatchProcessor struct {
	triager     Triager
	concurrency int
	limiter     *Limiter
	endpoint    string
}

// NewBatchProcessor creates a new batch processor. requestsPerSecond <= 0
// disables gateway pacing.
func NewBatchProcessor(triager Triager, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}

	return &BatchProcessor{
		triager:     triager,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// SetEndpoint keys gateway pacing by the provider endpoint
func (b *BatchProcessor) SetEndpoint(endpoint string) {
	b.endpoint = endpoint
}

// ProcessCases classifies the cases concurrently. The returned slice
// preserves input order regardless of completion order.
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []string, mode model.Mode) []*CaseResult {
	if len(cases) == 0 {
		return []*CaseResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit from a separate goroutine so the drain below keeps the bounded
	// queues moving for batches larger than the buffers
	go func() {
		for i, text := range cases {
			pool.Submit(&CaseJob{
				Index:    i,
				Text:     text,
				Mode:     mode,
				Triager:  b.triager,
				Limiter:  b.limiter,
				Endpoint: b.endpoint,
			})
		}
		pool.Close()
	}()

	ordered := make([]*CaseResult, len(cases))
	for result := range pool.Results() {
		r := result.(*CaseResult)
		ordered[r.Index] = r
	}

	return ordered
}

// ProcessFile reads cases from a file and classifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CaseResult, error) {
	cases, err := ReadCasesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	return b.ProcessCases(ctx, cases, model.ModeReferral), nil
}

// ReadCasesFromFile reads referral cases from a file. Cases span multiple
// lines and are separated by blank lines; lines starting with "#" are
// comments.
func ReadCasesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var cases []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			cases = append(cases, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		current = append(current, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return cases, nil
}
