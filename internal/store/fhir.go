package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/referralab/urgentia/internal/model"
)

// FHIRReferralRequest is the minimal FHIR resource exported for one
// referral
type FHIRReferralRequest struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Intent       string        `json:"intent"`
	Subject      FHIRReference `json:"subject"`
	AuthoredOn   string        `json:"authoredOn,omitempty"`
	Description  string        `json:"description"`
	Priority     string        `json:"priority"`
}

// FHIRReference points at another resource by relative path
type FHIRReference struct {
	Reference string `json:"reference"`
}

// FHIRResource maps a stored referral onto the resource shape consumed
// by FHIR-speaking systems
func FHIRResource(rec model.CaseRecord) FHIRReferralRequest {
	patientRef := rec.PatientID
	if patientRef == "" {
		patientRef = "unknown"
	}

	priority := strings.ToLower(string(rec.Priority))
	if priority == "" {
		priority = "routine"
	}

	var authored string
	if !rec.CreatedAt.IsZero() {
		authored = rec.CreatedAt.Format(time.RFC3339)
	}

	return FHIRReferralRequest{
		ResourceType: "ReferralRequest",
		ID:           strconv.FormatInt(rec.ID, 10),
		Status:       "active",
		Intent:       "order",
		Subject:      FHIRReference{Reference: "Patient/" + patientRef},
		AuthoredOn:   authored,
		Description:  rec.CaseText,
		Priority:     priority,
	}
}
