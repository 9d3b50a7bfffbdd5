package pipeline

import (
	"context"
	"time"

	"github.com/referralab/urgentia/internal/llm"
	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/validate"
)

// HealthChecker runs the pre-flight probes an evaluation starts with:
// raw connectivity to the gateway host, then credential acceptance.
type HealthChecker struct {
	endpoints *validate.EndpointChecker
	provider  llm.Provider
	endpoint  string
}

// NewHealthChecker creates a health checker for the configured provider
func NewHealthChecker(cfg *model.Config, provider llm.Provider) *HealthChecker {
	llmConfig := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	return &HealthChecker{
		endpoints: validate.NewEndpointChecker(cfg.HTTP),
		provider:  provider,
		endpoint:  llmConfig.Endpoint(),
	}
}

// Endpoint returns the probed base URL
func (h *HealthChecker) Endpoint() string {
	return h.endpoint
}

// Connectivity reports whether the gateway host answers HTTP at all. Any
// status code counts as reachable; only transport failure counts as down.
func (h *HealthChecker) Connectivity(ctx context.Context) model.ProbeResult {
	if h.endpoint == "" {
		return model.ProbeResult{Detail: "no endpoint configured"}
	}
	return h.endpoints.Probe(ctx, h.endpoint)
}

// Authentication reports whether the configured credential is accepted by
// the provider. Separate from Connectivity: a host can be reachable while
// the token is rejected.
func (h *HealthChecker) Authentication(ctx context.Context) model.ProbeResult {
	if h.provider == nil {
		return model.ProbeResult{Detail: "no provider configured"}
	}

	start := time.Now()
	ok := h.provider.IsAvailable(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	if !ok {
		return model.ProbeResult{LatencyMS: latency, Detail: "credential rejected or provider unreachable"}
	}
	return model.ProbeResult{OK: true, LatencyMS: latency, Detail: "authenticated"}
}
