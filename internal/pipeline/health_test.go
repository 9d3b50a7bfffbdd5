package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/referralab/urgentia/internal/model"
)

func newTestHealthChecker(t *testing.T, endpoint string, provider *mockProvider) *HealthChecker {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "azure"
	cfg.LLM.BaseURL = endpoint
	return NewHealthChecker(cfg, provider)
}

func TestHealthChecker_Connectivity_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newTestHealthChecker(t, server.URL, &mockProvider{available: true})

	probe := h.Connectivity(context.Background())
	if !probe.OK {
		t.Errorf("Expected reachable endpoint, got %+v", probe)
	}
	if probe.Detail != "HTTP 200" {
		t.Errorf("Expected HTTP 200 detail, got %q", probe.Detail)
	}
}

func TestHealthChecker_Connectivity_AuthErrorStillReachable(t *testing.T) {
	// A 401 from the gateway proves the host is up; auth is probed separately
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	h := newTestHealthChecker(t, server.URL, &mockProvider{})

	probe := h.Connectivity(context.Background())
	if !probe.OK {
		t.Errorf("Expected 401 to count as reachable, got %+v", probe)
	}
}

func TestHealthChecker_Connectivity_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newTestHealthChecker(t, server.URL, &mockProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := h.Connectivity(ctx)
	if probe.OK {
		t.Errorf("Expected canceled probe to fail, got %+v", probe)
	}
}

func TestHealthChecker_Authentication(t *testing.T) {
	h := newTestHealthChecker(t, "http://localhost:1", &mockProvider{available: true})
	probe := h.Authentication(context.Background())
	if !probe.OK {
		t.Errorf("Expected accepted credential, got %+v", probe)
	}

	h = newTestHealthChecker(t, "http://localhost:1", &mockProvider{available: false})
	probe = h.Authentication(context.Background())
	if probe.OK {
		t.Errorf("Expected rejected credential, got %+v", probe)
	}
}

func TestHealthChecker_NoProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.LLM.BaseURL = ""
	h := NewHealthChecker(cfg, nil)

	if probe := h.Authentication(context.Background()); probe.OK {
		t.Errorf("Expected not-OK with no provider, got %+v", probe)
	}
	if probe := h.Connectivity(context.Background()); probe.OK {
		t.Errorf("Expected not-OK with no endpoint, got %+v", probe)
	}
}
