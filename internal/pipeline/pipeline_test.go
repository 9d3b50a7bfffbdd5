package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/referralab/urgentia/internal/cache"
	"github.com/referralab/urgentia/internal/extract"
	"github.com/referralab/urgentia/internal/llm"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/store"
	"github.com/referralab/urgentia/internal/validate"
)

// mockProvider satisfies llm.Provider with a canned answer
type mockProvider struct {
	response  string
	err       error
	available bool
	calls     int
	lastReq   llm.ClassifyRequest
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Classify(ctx context.Context, req llm.ClassifyRequest) (*llm.ClassifyResult, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.ClassifyResult{
		Text:    m.response,
		Model:   "phi-4",
		Latency: 42 * time.Millisecond,
	}, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return m.available }

func newTestPipeline(t *testing.T, provider llm.Provider, withStore bool) *Pipeline {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.LLM.Model = "phi-4"

	var records *store.Store
	if withStore {
		s, err := store.Open(filepath.Join(t.TempDir(), "referrals.db"))
		if err != nil {
			t.Fatalf("Failed to open store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		records = s
	}

	return &Pipeline{
		images:    validate.NewImageValidator(),
		fields:    extract.NewFieldExtractor(),
		priority:  extract.NewPriorityExtractor(),
		specialty: extract.NewSpecialtyExtractor(),
		provider:  provider,
		records:   records,
		config:    cfg,
	}
}

const emergentAnswer = `| Patient ID | NHS Priority | NHS Specialty |
|---|---|---|
| NHS-001 | Emergent | Cardiology |

Priority Classification: Emergent
This presentation requires cardiology assessment.`

func TestPipeline_Process_ReferralMode(t *testing.T) {
	mock := &mockProvider{response: emergentAnswer, available: true}
	p := newTestPipeline(t, mock, true)

	input := model.CaseInput{
		Text: "Patient ID: NHS-001\nReferring from: Riverside GP Practice\nTeam/Staff Name: Dr. Jones\n58yo male with crushing chest pain.",
		Mode: model.ModeReferral,
	}

	result, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	c := result.Classification
	if c.Priority != model.PriorityEmergent {
		t.Errorf("Expected Emergent, got %s", c.Priority)
	}
	if c.Specialty != "cardiology" {
		t.Errorf("Expected cardiology, got %s", c.Specialty)
	}
	if c.PatientFields.PatientID != "NHS-001" {
		t.Errorf("Expected patient id from query text, got %q", c.PatientFields.PatientID)
	}
	if c.PatientFields.StaffName != "Dr. Jones" {
		t.Errorf("Expected staff name, got %q", c.PatientFields.StaffName)
	}
	if c.GatewayFailed {
		t.Error("Expected successful gateway call")
	}
	if mock.lastReq.System == "" {
		t.Error("Expected a system message in referral mode")
	}
	if !strings.Contains(mock.lastReq.User, "crushing chest pain") {
		t.Error("Expected case text in user prompt")
	}

	if result.Record == nil {
		t.Fatal("Expected a persisted record")
	}
	if result.Record.Priority != model.PriorityEmergent {
		t.Errorf("Expected persisted Emergent, got %s", result.Record.Priority)
	}
	if !strings.Contains(result.Record.ContextData, llm.ContextSplitMarker) {
		t.Error("Expected stored context to carry the result marker")
	}

	// Every invocation also writes an audit row
	queries, err := p.records.RecentQueries(5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(queries) != 1 {
		t.Fatalf("Expected 1 query log row, got %d", len(queries))
	}
	if queries[0].RecordID != result.Record.ID {
		t.Errorf("Expected log row linked to record %d, got %d", result.Record.ID, queries[0].RecordID)
	}
}

func TestPipeline_Process_GatewayFailure(t *testing.T) {
	mock := &mockProvider{err: &llm.GatewayError{StatusCode: 503, Message: "service unavailable"}}
	p := newTestPipeline(t, mock, true)

	result, err := p.Process(context.Background(), model.CaseInput{Text: "chest pain", Mode: model.ModeReferral})
	if err != nil {
		t.Fatalf("Expected gateway failure to be absorbed, got %v", err)
	}

	c := result.Classification
	if c.RawText != "Error from API: 503" {
		t.Errorf("Expected visible error text, got %q", c.RawText)
	}
	if !c.GatewayFailed || c.GatewayStatus != 503 {
		t.Errorf("Expected gateway failure flags, got %+v", c)
	}
	if c.Priority != model.PriorityUnknown {
		t.Errorf("Expected Unknown priority from error text, got %s", c.Priority)
	}

	// The referral row is still written, with the error text as the response
	if result.Record == nil {
		t.Fatal("Expected record despite gateway failure")
	}
	if result.Record.Response != "Error from API: 503" {
		t.Errorf("Unexpected stored response: %q", result.Record.Response)
	}
	if result.Record.Priority != model.PriorityRoutine {
		t.Errorf("Expected persistence fold to Routine, got %s", result.Record.Priority)
	}
}

func TestPipeline_Process_NonGatewayError(t *testing.T) {
	mock := &mockProvider{err: errors.New("marshal request: boom")}
	p := newTestPipeline(t, mock, false)

	_, err := p.Process(context.Background(), model.CaseInput{Text: "case"})
	if err == nil {
		t.Fatal("Expected non-gateway errors to propagate, got nil")
	}
}

func TestPipeline_Process_InvalidImage(t *testing.T) {
	mock := &mockProvider{response: "ok"}
	p := newTestPipeline(t, mock, false)

	_, err := p.Process(context.Background(), model.CaseInput{
		Text:  "case",
		Image: []byte("not an image"),
	})
	if err == nil {
		t.Fatal("Expected error for invalid image, got nil")
	}
	if !errors.Is(err, validate.ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("Expected no gateway call for invalid image, got %d", mock.calls)
	}
}

func TestPipeline_Process_CacheHit(t *testing.T) {
	mock := &mockProvider{response: "Priority Classification: Routine"}
	p := newTestPipeline(t, mock, false)
	p.cache = cache.NewMemoryCache(time.Minute, time.Minute, 0)

	input := model.CaseInput{Text: "annual review", Mode: model.ModeReferral}

	first, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.CacheHit {
		t.Error("Expected miss on first call")
	}

	second, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !second.CacheHit {
		t.Error("Expected hit on second call")
	}
	if mock.calls != 1 {
		t.Errorf("Expected exactly one gateway call, got %d", mock.calls)
	}
	if second.Classification.Priority != model.PriorityRoutine {
		t.Errorf("Expected cached answer to extract identically, got %s", second.Classification.Priority)
	}
}

func TestPipeline_Process_GatewayFailureNotCached(t *testing.T) {
	mock := &mockProvider{err: &llm.GatewayError{Timeout: true}}
	p := newTestPipeline(t, mock, false)
	p.cache = cache.NewMemoryCache(time.Minute, time.Minute, 0)

	input := model.CaseInput{Text: "case", Mode: model.ModeReferral}

	if _, err := p.Process(context.Background(), input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A second attempt reaches the gateway again instead of replaying the
	// error text
	if _, err := p.Process(context.Background(), input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("Expected 2 gateway calls, got %d", mock.calls)
	}
}

func TestPipeline_Process_GeneralMode(t *testing.T) {
	mock := &mockProvider{response: "Sepsis is a life-threatening response to infection."}
	p := newTestPipeline(t, mock, true)

	result, err := p.Process(context.Background(), model.CaseInput{
		Text: "What is sepsis?",
		Mode: model.ModeGeneral,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if mock.lastReq.System != "" {
		t.Errorf("Expected no system message in general mode, got %q", mock.lastReq.System)
	}
	if mock.lastReq.User != "What is sepsis?" {
		t.Errorf("Expected pass-through prompt, got %q", mock.lastReq.User)
	}
	if result.Classification.Priority != "" {
		t.Errorf("Expected no priority extraction in general mode, got %s", result.Classification.Priority)
	}
	if result.Record != nil {
		t.Error("Expected no referral row in general mode")
	}

	queries, err := p.records.RecentQueries(5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(queries) != 1 || queries[0].Mode != model.ModeGeneral {
		t.Errorf("Expected one general-mode log row, got %+v", queries)
	}
}

func TestPipeline_Process_ContextAwareUsesStoredContext(t *testing.T) {
	mock := &mockProvider{response: "The classification was driven by the chest pain."}
	p := newTestPipeline(t, mock, true)

	stored := llm.BuildContextData("58yo male with crushing chest pain", "| NHS-001 | Emergent |")
	rec := model.CaseRecord{CaseText: "58yo male with crushing chest pain", ContextData: stored}
	if _, err := p.records.CreateRecord(&rec); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := p.Process(context.Background(), model.CaseInput{
		Text: "Why was this classified as emergent?",
		Mode: model.ModeContextAware,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(mock.lastReq.User, "crushing chest pain") {
		t.Error("Expected stored context in the prompt")
	}
	if !strings.Contains(mock.lastReq.User, "Why was this classified as emergent?") {
		t.Error("Expected the follow-up question in the prompt")
	}
	if result.Record != nil {
		t.Error("Expected no new referral row for a follow-up question")
	}
}

func TestPipeline_Process_NoProvider(t *testing.T) {
	p := newTestPipeline(t, nil, false)
	p.provider = nil

	_, err := p.Process(context.Background(), model.CaseInput{Text: "case"})
	if err == nil {
		t.Fatal("Expected error with no provider, got nil")
	}
	if !strings.Contains(err.Error(), "no LLM provider") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestPipeline_Process_StoreFailureKeepsClassification(t *testing.T) {
	mock := &mockProvider{response: "Priority Classification: Urgent"}
	p := newTestPipeline(t, mock, true)

	// Force every write to fail
	_ = p.records.Close()

	result, err := p.Process(context.Background(), model.CaseInput{Text: "case", Mode: model.ModeReferral})
	if err != nil {
		t.Fatalf("Expected persistence failure to be absorbed, got %v", err)
	}
	if result.Record != nil {
		t.Error("Expected no record on store failure")
	}
	if result.Classification.Priority != model.PriorityUrgent {
		t.Errorf("Expected classification to survive store failure, got %s", result.Classification.Priority)
	}
}
