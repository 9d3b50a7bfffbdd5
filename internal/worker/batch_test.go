package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/pipeline"
)

// MockTriager implements the Triager interface
type MockTriager struct {
	FailOn string // cases containing this substring error out
	calls  int32
}

func (m *MockTriager) Process(ctx context.Context, input model.CaseInput) (*pipeline.Result, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(5 * time.Millisecond) // Simulate gateway latency

	if m.FailOn != "" && strings.Contains(input.Text, m.FailOn) {
		return nil, errors.New("classification failed")
	}

	priority := model.PriorityRoutine
	if strings.Contains(strings.ToLower(input.Text), "chest pain") {
		priority = model.PriorityEmergent
	}

	return &pipeline.Result{
		Classification: model.Classification{
			Priority: priority,
			RawText:  "Priority Classification: " + string(priority),
		},
	}, nil
}

func TestBatchProcessor_ProcessCases(t *testing.T) {
	triager := &MockTriager{}
	processor := NewBatchProcessor(triager, 2, 0, 0)

	cases := []string{
		"58yo male with crushing chest pain",
		"annual diabetic review",
		"skin rash on forearm",
	}

	results := processor.ProcessCases(context.Background(), cases, model.ModeReferral)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Input order is preserved regardless of completion order
	for i, res := range results {
		if res == nil {
			t.Fatalf("missing result at position %d", i)
		}
		if res.Text != cases[i] {
			t.Errorf("position %d: expected %q, got %q", i, cases[i], res.Text)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for case %d: %v", i, res.Error)
		}
	}

	if results[0].Outcome.Classification.Priority != model.PriorityEmergent {
		t.Errorf("expected Emergent for chest pain case, got %s", results[0].Outcome.Classification.Priority)
	}
	if results[1].Outcome.Classification.Priority != model.PriorityRoutine {
		t.Errorf("expected Routine for review case, got %s", results[1].Outcome.Classification.Priority)
	}
}

func TestBatchProcessor_ErrorsIsolated(t *testing.T) {
	triager := &MockTriager{FailOn: "unparseable"}
	processor := NewBatchProcessor(triager, 2, 0, 0)

	cases := []string{"routine case", "unparseable case", "another routine case"}
	results := processor.ProcessCases(context.Background(), cases, model.ModeReferral)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("expected surrounding cases to succeed")
	}
	if results[1].Error == nil {
		t.Error("expected failing case to carry its error")
	}
}

func TestBatchProcessor_LargeBatch(t *testing.T) {
	triager := &MockTriager{}
	processor := NewBatchProcessor(triager, 4, 0, 0)

	cases := make([]string, 60)
	for i := range cases {
		cases[i] = "routine follow-up"
	}

	results := processor.ProcessCases(context.Background(), cases, model.ModeReferral)

	if len(results) != 60 {
		t.Fatalf("expected 60 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil || res.Error != nil {
			t.Fatalf("case %d did not complete cleanly", i)
		}
	}
	if atomic.LoadInt32(&triager.calls) != 60 {
		t.Errorf("expected 60 pipeline calls, got %d", triager.calls)
	}
}

func TestBatchProcessor_Paced(t *testing.T) {
	triager := &MockTriager{}
	// 2 cases over the burst should take at least one token interval
	processor := NewBatchProcessor(triager, 4, 20, 1)
	processor.SetEndpoint("https://models.inference.ai.azure.com/v1")

	cases := []string{"case one", "case two"}

	start := time.Now()
	results := processor.ProcessCases(context.Background(), cases, model.ModeReferral)
	elapsed := time.Since(start)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected pacing to spread calls, finished in %v", elapsed)
	}
}

func TestReadCasesFromFile(t *testing.T) {
	content := `# Referral batch for Monday triage
Patient ID: NHS-001
58yo male with crushing chest pain radiating to left arm.

# second case follows
Patient ID: NHS-002
Annual diabetic review, well-controlled on metformin.
Referring from: Westgate Surgery
`
	path := filepath.Join(t.TempDir(), "cases.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cases, err := ReadCasesFromFile(path)
	if err != nil {
		t.Fatalf("read cases: %v", err)
	}

	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if !strings.Contains(cases[0], "NHS-001") || !strings.Contains(cases[0], "chest pain") {
		t.Errorf("unexpected first case: %q", cases[0])
	}
	if !strings.HasPrefix(cases[1], "Patient ID: NHS-002") {
		t.Errorf("unexpected second case: %q", cases[1])
	}
	if strings.Contains(cases[1], "#") {
		t.Error("comment lines should be skipped")
	}
	// Multi-line cases keep their internal line structure
	if len(strings.Split(cases[1], "\n")) != 3 {
		t.Errorf("expected 3 lines in second case, got %q", cases[1])
	}
}

func TestReadCasesFromFile_Missing(t *testing.T) {
	_, err := ReadCasesFromFile("/nonexistent/cases.txt")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := "first referral case\n\nsecond referral case\n"
	path := filepath.Join(t.TempDir(), "cases.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	processor := NewBatchProcessor(&MockTriager{}, 2, 0, 0)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}
