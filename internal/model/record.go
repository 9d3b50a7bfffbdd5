package model

import "time"

// Referral lifecycle statuses. Records created by the pipeline start as
// StatusProcessed; manually managed referrals move through the workflow set.
const (
	StatusProcessed  = "processed"
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// WorkflowStatuses are the statuses a record may be transitioned to after
// creation
var WorkflowStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// IsWorkflowStatus reports whether s is a valid transition target
func IsWorkflowStatus(s string) bool {
	for _, w := range WorkflowStatuses {
		if s == w {
			return true
		}
	}
	return false
}

// CaseRecord is one persisted referral: the submitted text, the model answer
// and the fields extracted from both
type CaseRecord struct {
	ID                int64     `json:"id"`
	PatientID         string    `json:"patient_id"`
	PatientName       string    `json:"patient_name,omitempty"`
	ReferringLocation string    `json:"referring_location,omitempty"`
	StaffName         string    `json:"staff_name,omitempty"`
	CaseText          string    `json:"case_text"`
	Response          string    `json:"response"`
	ContextData       string    `json:"context_data,omitempty"`
	Priority          Priority  `json:"priority"`
	Specialty         string    `json:"specialty"`
	Status            string    `json:"status"`
	Provider          string    `json:"provider,omitempty"`
	Model             string    `json:"model,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Patient is the demographic row shared by a patient's referrals
type Patient struct {
	ID        int64     `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name,omitempty"`
	Age       int       `json:"age,omitempty"`
	Sex       string    `json:"sex,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryLog is the audit row for one pipeline invocation. RecordID is zero
// when record persistence failed or was disabled.
type QueryLog struct {
	ID        int64     `json:"id"`
	RecordID  int64     `json:"record_id,omitempty"`
	Mode      Mode      `json:"mode"`
	QueryText string    `json:"query_text"`
	Response  string    `json:"response"`
	Provider  string    `json:"provider,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
