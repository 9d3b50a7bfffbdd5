package model

import "time"

// Priority is the NHS urgency tier assigned to a referral
type Priority string

const (
	PriorityEmergent Priority = "Emergent" // life-threatening, response <15 minutes
	PriorityUrgent   Priority = "Urgent"   // serious, assessment <2 hours
	PriorityRoutine  Priority = "Routine"  // scheduled care, <18 weeks
	PriorityUnknown  Priority = "Unknown"  // model answer did not state a tier
)

// Rank returns the sort rank for a priority (1 = most urgent, 4 = unknown)
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergent:
		return 1
	case PriorityUrgent:
		return 2
	case PriorityRoutine:
		return 3
	default:
		return 4
	}
}

// Mode selects the prompt strategy for a case
type Mode string

const (
	ModeReferral     Mode = "referral"      // full NHS triage rubric
	ModeContextAware Mode = "context_aware" // explain a prior classification
	ModeGeneral      Mode = "general"       // plain clinical question
)

// CaseInput is one incoming referral request. Immutable once built.
type CaseInput struct {
	// Text is the free-text referral description (may cover several patients)
	Text string

	// Image is an optional attachment (referral letter scan, ECG photo)
	Image []byte

	// Mode selects the prompt strategy
	Mode Mode

	// Context carries the prior classification for context_aware questions
	Context string
}

// PatientFields are the labeled fields recovered from the submitted query text
// (not from the model's answer). Empty string means the label was absent.
type PatientFields struct {
	PatientID         string `json:"patient_id,omitempty"`
	ReferringLocation string `json:"referring_location,omitempty"`
	StaffName         string `json:"staff_name,omitempty"`
	PatientName       string `json:"patient_name,omitempty"`
}

// Classification is the structured result derived from one model response.
// Created fresh per response; never mutated after creation.
type Classification struct {
	Priority      Priority      `json:"priority"`
	Specialty     string        `json:"specialty"`
	RawText       string        `json:"raw_text"`
	PatientFields PatientFields `json:"patient_fields"`

	// GatewayFailed marks RawText as an error substitute rather than a model
	// answer, so an Unknown here is distinguishable from a genuinely
	// ambiguous reply
	GatewayFailed bool `json:"gateway_failed,omitempty"`
	GatewayStatus int  `json:"gateway_status,omitempty"`

	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
