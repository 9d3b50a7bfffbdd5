package extract

import (
	"regexp"
	"strings"

	"github.com/referralab/urgentia/internal/model"
)

// Labeled-field patterns over the submitted query text. Each captures the
// remainder of the line after its label.
var (
	patientIDRe = regexp.MustCompile(`Patient ID:\s*([^\n\r]+)`)
	referringRe = regexp.MustCompile(`Referring from:\s*([^\n\r]+)`)
	staffRe     = regexp.MustCompile(`Team/Staff Name:\s*([^\n\r]+)`)
)

// Name-shaped patterns tried in order. Candidates are filtered below, and a
// rejected candidate moves on to the next pattern.
var nameRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)patient[:\s]+([A-Za-z\s]+)(?:\n|,|\.|$)`),
	regexp.MustCompile(`(?i)name[:\s]+([A-Za-z\s]+)(?:\n|,|\.|$)`),
	regexp.MustCompile(`(?i)pt[:\s]+([A-Za-z\s]+)(?:\n|,|\.|$)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+\s+[A-Z][a-z]+)`),
}

// clinical terms that disqualify a name candidate
var nameStopWords = []string{
	"patient", "male", "female", "year", "old", "years", "history", "diagnosis",
}

// FieldExtractor recovers labeled patient fields from the original submitted
// query text (not from the model's answer). A missing label yields an empty
// field, never an error.
type FieldExtractor struct{}

// NewFieldExtractor creates a field extractor
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Extract pulls all patient fields from the query text
func (e *FieldExtractor) Extract(query string) model.PatientFields {
	return model.PatientFields{
		PatientID:         captureField(patientIDRe, query),
		ReferringLocation: captureField(referringRe, query),
		StaffName:         captureField(staffRe, query),
		PatientName:       e.PatientName(query),
	}
}

// PatientName finds a plausible patient name in free-form case text. Each
// pattern's candidate is rejected if it contains a clinical stop-word or
// runs longer than four words; the first accepted candidate wins.
func (e *FieldExtractor) PatientName(text string) string {
	for _, re := range nameRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if acceptableName(name) {
			return name
		}
	}
	return ""
}

func acceptableName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range nameStopWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return len(strings.Fields(name)) <= 4
}

func captureField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
