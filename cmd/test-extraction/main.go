// Test program to demonstrate deterministic field extraction
// This shows priority, specialty, and patient field extraction working
// on model answers without any API access
package main

import (
	"fmt"
	"strings"

	"github.com/referralab/urgentia/internal/extract"
)

func main() {
	fmt.Println("=== Referral Extraction Test ===")
	fmt.Println()

	// Model answers with known shapes
	answers := []struct {
		name     string
		response string
	}{
		{
			name: "clean markdown table",
			response: `| Field | Value |
|-------|-------|
| **Priority Classification** | Emergent |
| **Recommended Specialty** | Cardiology |

The patient requires immediate cardiology assessment for suspected
acute coronary syndrome.`,
		},
		{
			name: "prose answer",
			response: `This presentation is concerning but not immediately
life-threatening. I would classify this referral as Urgent and
recommend a dermatology review within two weeks given the changing
pigmented lesion.`,
		},
		{
			name: "hedged answer naming several tiers",
			response: `While chest pain can be emergent in some presentations,
the reported symptoms here are chronic and stable. Routine referral
to rheumatology is appropriate.`,
		},
		{
			name:     "gateway failure text",
			response: "Error from API: 503",
		},
	}

	priority := extract.NewPriorityExtractor()
	specialty := extract.NewSpecialtyExtractor()

	for _, a := range answers {
		fmt.Printf("Testing: %s\n", a.name)
		fmt.Println(strings.Repeat("-", 60))

		flat := extract.Flatten(a.response)
		p := priority.Extract(flat)
		s := specialty.Extract(flat)

		fmt.Printf("  Priority:         %s\n", p)
		fmt.Printf("  Highest urgency:  %s\n", extract.HighestUrgency(a.response))
		fmt.Printf("  Specialty:        %s\n", s)

		if p == "Unknown" {
			fmt.Println("  ⚠️  No priority stated; record keeps the raw answer for review")
		} else {
			fmt.Println("  ✓ Extraction resolved a tier")
		}
		fmt.Println()
	}

	// Patient fields come from the submitted referral, not the answer
	referral := `Patient: Sarah O'Connor
Patient ID: NHS-4411223
Age: 67
Staff: Dr. Patel
Location: Westgate Surgery

67yo female with crushing central chest pain radiating to left arm,
onset 40 minutes ago. Diaphoretic, BP 88/60.`

	fields := extract.NewFieldExtractor().Extract(referral)
	fmt.Println("Testing: patient fields from referral text")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Patient ID:  %s\n", fields.PatientID)
	fmt.Printf("  Patient:     %s\n", fields.PatientName)
	fmt.Printf("  Staff:       %s\n", fields.StaffName)
	fmt.Printf("  Location:    %s\n", fields.ReferringLocation)
	fmt.Println()

	fmt.Println("=== Test Complete ===")
	fmt.Println()
	fmt.Println("Note: Extraction is rule-based and deterministic.")
	fmt.Println("The same model answer always yields the same classification.")
}
