package extract

import "strings"

// SpecialtyDefault is returned when no specialty keyword matches
const SpecialtyDefault = "general"

// SpecialtyExtractor maps a model response to a target specialty by ordered
// keyword containment. The table normalizes spelling variants (orthopedic,
// gynecology) to the NHS forms.
type SpecialtyExtractor struct {
	rules []rule
}

// NewSpecialtyExtractor builds the static keyword table
func NewSpecialtyExtractor() *SpecialtyExtractor {
	pairs := []struct{ keyword, specialty string }{
		{"cardiology", "cardiology"},
		{"oncology", "oncology"},
		{"surgery", "surgery"},
		{"emergency", "emergency"},
		{"er", "emergency"},
		{"dermatology", "dermatology"},
		{"orthopaedic", "orthopaedic"},
		{"orthopedic", "orthopaedic"},
		{"obstetrics", "obstetrics"},
		{"gynaecology", "gynaecology"},
		{"gynecology", "gynaecology"},
	}

	rules := make([]rule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, rule{
			match: contains(p.keyword),
			label: p.specialty,
		})
	}

	return &SpecialtyExtractor{rules: rules}
}

// Extract returns the first specialty whose keyword appears in the lowered
// text, or SpecialtyDefault
func (e *SpecialtyExtractor) Extract(response string) string {
	lower := strings.ToLower(response)
	if label, ok := firstMatch(e.rules, lower); ok {
		return label
	}
	return SpecialtyDefault
}
