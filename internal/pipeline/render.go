package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/referralab/urgentia/internal/model"
)

// disclaimer printed under every rendered result unless the footer is
// disabled
const resultFooter = "Decision support only. Clinical responsibility remains with the referrer."

// Renderer writes triage results to files and the terminal
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full result as indented JSON
func (r *Renderer) RenderJSON(result *Result, path string) error {
	data, err := json.MarshalIndent(result.Classification, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// RenderSummary prints the human-readable result block to stdout
func (r *Renderer) RenderSummary(result *Result) {
	c := result.Classification

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Referral Triage Result")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()

	if c.Priority != "" {
		fmt.Printf("  Priority:    %s\n", c.Priority)
		fmt.Printf("  Specialty:   %s\n", c.Specialty)
	}
	if c.PatientFields.PatientID != "" {
		fmt.Printf("  Patient ID:  %s\n", c.PatientFields.PatientID)
	}
	if c.PatientFields.PatientName != "" {
		fmt.Printf("  Patient:     %s\n", c.PatientFields.PatientName)
	}
	if c.PatientFields.StaffName != "" || c.PatientFields.ReferringLocation != "" {
		fmt.Printf("  Referrer:    %s\n", formatReferrer(c.PatientFields))
	}
	fmt.Printf("  Provider:    %s/%s\n", c.Provider, c.Model)
	if result.CacheHit {
		fmt.Printf("  Latency:     cached\n")
	} else {
		fmt.Printf("  Latency:     %.1f ms\n", c.LatencyMS)
	}
	if result.Record != nil {
		fmt.Printf("  Record:      #%d\n", result.Record.ID)
	}
	if c.GatewayFailed {
		fmt.Printf("  Gateway:     FAILED (%s)\n", c.RawText)
	}

	fmt.Println()
	fmt.Println("  Model answer:")
	fmt.Println()
	for _, line := range strings.Split(strings.TrimSpace(c.RawText), "\n") {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()

	if r.includeFooter {
		fmt.Printf("  %s\n", resultFooter)
		fmt.Println()
	}
}

func formatReferrer(f model.PatientFields) string {
	switch {
	case f.StaffName != "" && f.ReferringLocation != "":
		return fmt.Sprintf("%s (%s)", f.StaffName, f.ReferringLocation)
	case f.StaffName != "":
		return f.StaffName
	default:
		return f.ReferringLocation
	}
}
