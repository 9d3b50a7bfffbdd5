package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/referralab/urgentia/internal/cache"
	"github.com/referralab/urgentia/internal/extract"
	"github.com/referralab/urgentia/internal/llm"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/store"
	"github.com/referralab/urgentia/internal/validate"
)

// Pipeline orchestrates the complete triage process
type Pipeline struct {
	images    *validate.ImageValidator
	fields    *extract.FieldExtractor
	priority  *extract.PriorityExtractor
	specialty *extract.SpecialtyExtractor
	provider  llm.Provider // Optional LLM provider (nil if disabled)
	cache     cache.Cache  // Optional response cache (nil if disabled)
	records   *store.Store // Optional persistence (nil if disabled)
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	// Create LLM provider if configured
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
		llmConfig.APIKey = llm.ResolveAPIKey(llmConfig.Provider, llmConfig.APIKey)
		p, err := llm.NewProvider(llmConfig)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.NewLayeredCache(cfg.Cache)
	}

	var records *store.Store
	if cfg.Store.Enabled {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Printf("Warning: Failed to open referral store: %v\n", err)
		} else {
			records = s
		}
	}

	return &Pipeline{
		images:    validate.NewImageValidator(),
		fields:    extract.NewFieldExtractor(),
		priority:  extract.NewPriorityExtractor(),
		specialty: extract.NewSpecialtyExtractor(),
		provider:  provider,
		cache:     responseCache,
		records:   records,
		config:    cfg,
	}
}

// Provider exposes the configured gateway provider (nil when disabled)
func (p *Pipeline) Provider() llm.Provider {
	return p.provider
}

// Records exposes the referral store (nil when disabled)
func (p *Pipeline) Records() *store.Store {
	return p.records
}

// Close releases the persistence handle
func (p *Pipeline) Close() error {
	if p.records == nil {
		return nil
	}
	return p.records.Close()
}

// Result contains the complete outcome of one case
type Result struct {
	Classification model.Classification
	Record         *model.CaseRecord // nil unless a referral row was written
	CacheHit       bool
}

// Process runs one case through the full pipeline: validate the attachment,
// build the prompt, invoke the gateway, extract structured fields and
// persist. A gateway failure never aborts the case; its visible error text
// takes the place of the model answer.
func (p *Pipeline) Process(ctx context.Context, input model.CaseInput) (*Result, error) {
	// 1. Validate the attachment before any network call
	if _, err := p.images.Check(input.Image); err != nil {
		return nil, fmt.Errorf("validate image: %w", err)
	}

	mode := input.Mode
	if mode == "" {
		mode = model.ModeReferral
	}

	if p.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	// 2. Recover the stored prior classification for follow-up questions
	contextData := input.Context
	if mode == model.ModeContextAware && contextData == "" && p.records != nil {
		if prior, err := p.records.LatestContext(); err == nil {
			contextData = prior
		}
	}

	// 3. Build the prompt pair
	system, user := llm.BuildPrompt(mode, input.Text, contextData)

	classification := model.Classification{
		Provider:  p.provider.Name(),
		Model:     p.config.LLM.Model,
		CreatedAt: time.Now().UTC(),
	}

	// 4. Check the response cache
	var cacheKey string
	var cacheHit bool
	if p.cache != nil {
		cacheKey = cache.ClassificationKey(p.provider.Name(), p.config.LLM.Model, system, user, input.Image)
		if cached, found := p.cache.Get(cacheKey); found {
			classification.RawText = string(cached)
			cacheHit = true
		}
	}

	// 5. Invoke the gateway on a miss
	if !cacheHit {
		resp, err := p.provider.Classify(ctx, llm.ClassifyRequest{
			System: system,
			User:   user,
			Image:  input.Image,
		})
		var gwErr *llm.GatewayError
		switch {
		case err == nil:
			classification.RawText = resp.Text
			classification.LatencyMS = float64(resp.Latency.Microseconds()) / 1000.0
			if resp.Model != "" {
				classification.Model = resp.Model
			}
			if p.cache != nil {
				_ = p.cache.Set(cacheKey, []byte(resp.Text), 0) // Use default TTL
			}
		case errors.As(err, &gwErr):
			// The failure becomes visible text in place of the answer, so
			// extraction resolves it to Unknown and a batch keeps going
			classification.RawText = gwErr.VisibleText()
			classification.GatewayFailed = true
			classification.GatewayStatus = gwErr.StatusCode
		default:
			return nil, fmt.Errorf("classify: %w", err)
		}
	}

	// 6. Extract structured fields. Patient identifiers come from the
	// submitted text, priority and specialty from the model answer.
	if mode == model.ModeReferral {
		flat := extract.Flatten(classification.RawText)
		classification.Priority = p.priority.Extract(flat)
		classification.Specialty = p.specialty.Extract(flat)
		classification.PatientFields = p.fields.Extract(input.Text)
	}

	result := &Result{
		Classification: classification,
		CacheHit:       cacheHit,
	}

	// 7. Persist. A store failure is logged and the computed classification
	// still returns to the caller.
	if p.records != nil {
		result.Record = p.persist(mode, input, classification)
	}

	return result, nil
}

// persist writes the referral row (referral mode only) and the audit log row
// (every mode). Returns the written record, or nil.
func (p *Pipeline) persist(mode model.Mode, input model.CaseInput, c model.Classification) *model.CaseRecord {
	var rec *model.CaseRecord
	var recordID int64

	if mode == model.ModeReferral {
		rec = &model.CaseRecord{
			PatientID:         c.PatientFields.PatientID,
			PatientName:       c.PatientFields.PatientName,
			ReferringLocation: c.PatientFields.ReferringLocation,
			StaffName:         c.PatientFields.StaffName,
			CaseText:          input.Text,
			Response:          c.RawText,
			ContextData:       llm.BuildContextData(input.Text, c.RawText),
			Priority:          extract.HighestUrgency(c.RawText),
			Specialty:         c.Specialty,
			Provider:          c.Provider,
			Model:             c.Model,
		}
		if id, err := p.records.CreateRecord(rec); err != nil {
			fmt.Printf("Warning: Failed to save referral: %v\n", err)
			rec = nil
		} else {
			recordID = id
		}
	}

	q := model.QueryLog{
		RecordID:  recordID,
		Mode:      mode,
		QueryText: input.Text,
		Response:  c.RawText,
		Provider:  c.Provider,
		LatencyMS: c.LatencyMS,
	}
	if err := p.records.LogQuery(&q); err != nil {
		fmt.Printf("Warning: Failed to log query: %v\n", err)
	}

	return rec
}
