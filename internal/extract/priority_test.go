package extract

import (
	"testing"

	"github.com/referralab/urgentia/internal/model"
)

func TestPriorityExtractor_EmptyResponse(t *testing.T) {
	extractor := NewPriorityExtractor()

	for _, text := range []string{"", "   ", "\n\t\n"} {
		if got := extractor.Extract(text); got != model.PriorityUnknown {
			t.Errorf("Expected Unknown for %q, got %s", text, got)
		}
	}
}

func TestPriorityExtractor_ExplicitPhrases(t *testing.T) {
	extractor := NewPriorityExtractor()

	cases := []struct {
		text string
		want model.Priority
	}{
		{"Priority Classification: Routine. Book within 18 weeks.", model.PriorityRoutine},
		{"Priority: Emergent. Resuscitation team activated.", model.PriorityEmergent},
		{"The classification: urgent applies to this referral.", model.PriorityUrgent},
		{"NHS Priority: Emergent\nResponse Time: <15 minutes", model.PriorityEmergent},
		{"nhs priority: routine as per pathway", model.PriorityRoutine},
	}

	for _, tc := range cases {
		if got := extractor.Extract(tc.text); got != tc.want {
			t.Errorf("Extract(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestPriorityExtractor_PhraseBeatsKeywordElsewhere(t *testing.T) {
	extractor := NewPriorityExtractor()

	text := "Priority: Routine. Consider emergent referral if deteriorates."
	if got := extractor.Extract(text); got != model.PriorityRoutine {
		t.Errorf("Expected Routine, got %s", got)
	}
}

func TestPriorityExtractor_RoutinePhraseCheckedFirst(t *testing.T) {
	extractor := NewPriorityExtractor()

	// both phrase forms present: the routine table block outranks emergent
	text := "Initial impression Priority: Emergent, but final classification: routine after review."
	if got := extractor.Extract(text); got != model.PriorityRoutine {
		t.Errorf("Expected Routine, got %s", got)
	}
}

func TestPriorityExtractor_LineStatements(t *testing.T) {
	extractor := NewPriorityExtractor()

	cases := []struct {
		text string
		want model.Priority
	}{
		{"Assessment follows.\n**Urgent** referral to surgical team.", model.PriorityUrgent},
		{"Summary of findings.\nEmergent presentation with hypotension.", model.PriorityEmergent},
		{"Given the stability, this case should be classified as routine by the triage team.", model.PriorityRoutine},
		{"Plan:\nRoutine follow-up in clinic.", model.PriorityRoutine},
	}

	for _, tc := range cases {
		if got := extractor.Extract(tc.text); got != tc.want {
			t.Errorf("Extract(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestPriorityExtractor_FirstMatchingLineWins(t *testing.T) {
	extractor := NewPriorityExtractor()

	text := "Triage summary\n" +
		"Urgent assessment required for patient one.\n" +
		"Remaining patients reviewed.\n" +
		"Routine follow-up for patient two."
	if got := extractor.Extract(text); got != model.PriorityUrgent {
		t.Errorf("Expected Urgent from first matching line, got %s", got)
	}
}

func TestPriorityExtractor_SingleKeywordFallback(t *testing.T) {
	extractor := NewPriorityExtractor()

	cases := []struct {
		text string
		want model.Priority
	}{
		{"This requires urgent review.", model.PriorityUrgent},
		{"A clearly emergent picture overall.", model.PriorityEmergent},
		{"Suitable for a routine appointment slot.", model.PriorityRoutine},
	}

	for _, tc := range cases {
		if got := extractor.Extract(tc.text); got != tc.want {
			t.Errorf("Extract(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestPriorityExtractor_AmbiguousKeywordsReturnUnknown(t *testing.T) {
	extractor := NewPriorityExtractor()

	cases := []string{
		"Discussed the routine, urgent, and emergent pathways with the team.",
		"Could be either a routine matter or an urgent one depending on swelling.",
		"Neither emergent nor urgent criteria are described here in full.",
	}

	for _, text := range cases {
		if got := extractor.Extract(text); got != model.PriorityUnknown {
			t.Errorf("Extract(%q) = %s, want Unknown", text, got)
		}
	}
}

func TestPriorityExtractor_NoPriorityLanguage(t *testing.T) {
	extractor := NewPriorityExtractor()

	text := "The patient was reviewed and notes were updated."
	if got := extractor.Extract(text); got != model.PriorityUnknown {
		t.Errorf("Expected Unknown, got %s", got)
	}
}

func TestPriorityExtractor_GatewayErrorText(t *testing.T) {
	extractor := NewPriorityExtractor()

	if got := extractor.Extract("Error from API: 503"); got != model.PriorityUnknown {
		t.Errorf("Expected Unknown for gateway error text, got %s", got)
	}
}

func TestPriorityExtractor_Idempotent(t *testing.T) {
	extractor := NewPriorityExtractor()

	inputs := []string{
		"",
		"Priority: Routine. Consider emergent referral if deteriorates.",
		"**Urgent** surgical opinion needed.",
		"Discussed routine, urgent, and emergent pathways.",
	}

	for _, text := range inputs {
		first := extractor.Extract(text)
		second := extractor.Extract(text)
		if first != second {
			t.Errorf("Extract(%q) not stable: %s then %s", text, first, second)
		}
	}
}

func TestPriorityExtractor_CaseInsensitive(t *testing.T) {
	extractor := NewPriorityExtractor()

	if got := extractor.Extract("PRIORITY: URGENT"); got != model.PriorityUrgent {
		t.Errorf("Expected Urgent, got %s", got)
	}
}

func TestHighestUrgency(t *testing.T) {
	cases := []struct {
		text string
		want model.Priority
	}{
		{"Two emergent cases and one urgent case identified.", model.PriorityEmergent},
		{"One urgent case, remainder routine.", model.PriorityUrgent},
		{"All cases routine.", model.PriorityRoutine},
		{"", model.PriorityRoutine},
	}

	for _, tc := range cases {
		if got := HighestUrgency(tc.text); got != tc.want {
			t.Errorf("HighestUrgency(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}
