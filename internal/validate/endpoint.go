package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/util"
)

const probeMaxRetries = 3

// probeSleepFunc is the sleep function used between retries (injectable for tests)
var probeSleepFunc = time.Sleep

// EndpointChecker probes gateway endpoints for reachability
type EndpointChecker struct {
	httpClient *http.Client
	userAgent  string
}

// NewEndpointChecker creates a checker from the HTTP section of the
// application config
func NewEndpointChecker(cfg model.HTTPConfig) *EndpointChecker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &EndpointChecker{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Probe checks whether an endpoint answers at all, retrying transient
// transport failures with exponential backoff. Any HTTP status counts
// as reachable; auth problems surface as 401/403 and are reported
// separately by the provider availability check.
func (c *EndpointChecker) Probe(ctx context.Context, url string) model.ProbeResult {
	var result model.ProbeResult
	for attempt := 0; attempt < probeMaxRetries; attempt++ {
		result = c.probeOnce(ctx, url)
		if result.OK || !retryableProbe(result) {
			return result
		}
		if attempt < probeMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			probeSleepFunc(backoff)
		}
	}
	return result
}

// probeOnce performs a single GET against the endpoint
func (c *EndpointChecker) probeOnce(ctx context.Context, url string) model.ProbeResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ProbeResult{Detail: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		return model.ProbeResult{LatencyMS: latency, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	return model.ProbeResult{OK: true, LatencyMS: latency, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
}

// retryableProbe returns true for results that indicate transient failures
func retryableProbe(result model.ProbeResult) bool {
	s := strings.ToLower(result.Detail)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
