package extract

import "testing"

func TestFieldExtractor_LabeledFields(t *testing.T) {
	extractor := NewFieldExtractor()

	query := "Patient ID: NHS-4471\n" +
		"Referring from: Oak Lane Surgery\n" +
		"Team/Staff Name: Dr. Patel\n" +
		"Case: chest pain on exertion"

	fields := extractor.Extract(query)

	if fields.PatientID != "NHS-4471" {
		t.Errorf("Expected patient id NHS-4471, got %q", fields.PatientID)
	}
	if fields.ReferringLocation != "Oak Lane Surgery" {
		t.Errorf("Expected referring location Oak Lane Surgery, got %q", fields.ReferringLocation)
	}
	if fields.StaffName != "Dr. Patel" {
		t.Errorf("Expected staff name Dr. Patel, got %q", fields.StaffName)
	}
}

func TestFieldExtractor_MissingLabels(t *testing.T) {
	extractor := NewFieldExtractor()

	fields := extractor.Extract("no structured labels here")

	if fields.PatientID != "" || fields.ReferringLocation != "" || fields.StaffName != "" {
		t.Errorf("Expected empty fields, got %+v", fields)
	}
}

func TestFieldExtractor_LabelValueTrimmed(t *testing.T) {
	extractor := NewFieldExtractor()

	fields := extractor.Extract("Patient ID:   P-100   \nrest of case")
	if fields.PatientID != "P-100" {
		t.Errorf("Expected trimmed P-100, got %q", fields.PatientID)
	}
}

func TestFieldExtractor_PatientName(t *testing.T) {
	extractor := NewFieldExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"Patient: John Smith\nAge: 45", "John Smith"},
		{"Name: Mary Jones, 52F with palpitations", "Mary Jones"},
		{"Jane Doe attended with chest pain.", "Jane Doe"},
	}

	for _, tc := range cases {
		if got := extractor.PatientName(tc.text); got != tc.want {
			t.Errorf("PatientName(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestFieldExtractor_PatientNameStopWords(t *testing.T) {
	extractor := NewFieldExtractor()

	// candidates containing clinical terms are rejected, and rejection
	// moves on to the next pattern rather than aborting
	cases := []string{
		"Patient: Male\nAge: 60",
		"Patient: Female Patient admitted overnight",
	}

	for _, text := range cases {
		if got := extractor.PatientName(text); got != "" {
			t.Errorf("PatientName(%q) = %q, want empty", text, got)
		}
	}
}

func TestFieldExtractor_PatientNameWordLimit(t *testing.T) {
	extractor := NewFieldExtractor()

	// the five-word labeled candidate is rejected, then the relaxed pair
	// pattern picks up the leading pair instead
	text := "Patient: Anna Maria Louisa Van Der, seen today"
	if got := extractor.PatientName(text); got != "Anna Maria" {
		t.Errorf("Expected fallthrough to Anna Maria, got %q", got)
	}
}

func TestFieldExtractor_NoNameFound(t *testing.T) {
	extractor := NewFieldExtractor()

	// no labels and no adjacent word pair anywhere
	if got := extractor.PatientName("45, male, 78bpm."); got != "" {
		t.Errorf("Expected empty name, got %q", got)
	}
}
