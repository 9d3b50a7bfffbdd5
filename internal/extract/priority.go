package extract

import (
	"strings"

	"github.com/referralab/urgentia/internal/model"
)

// priority levels in table order. Routine is listed first so that explicit
// routine statements beat urgency words appearing later in the answer.
var priorityLevels = []struct {
	keyword string
	label   model.Priority
}{
	{"routine", model.PriorityRoutine},
	{"emergent", model.PriorityEmergent},
	{"urgent", model.PriorityUrgent},
}

// PriorityExtractor resolves an NHS priority tier from unstructured model
// output. Resolution runs in three stages of decreasing confidence: explicit
// classification phrases, line-level statements, then a whole-text keyword
// fallback that fires only when exactly one tier keyword is present.
type PriorityExtractor struct {
	phrases  []rule
	lines    []rule
	fallback []rule
}

// NewPriorityExtractor builds the static rule tables
func NewPriorityExtractor() *PriorityExtractor {
	templates := []string{
		"priority classification: ",
		"priority: ",
		"classification: ",
		"nhs priority: ",
	}

	var phrases []rule
	for _, level := range priorityLevels {
		for _, t := range templates {
			phrases = append(phrases, rule{
				match: contains(t + level.keyword),
				label: string(level.label),
			})
		}
	}

	var lines []rule
	for _, level := range priorityLevels {
		kw := level.keyword
		lines = append(lines, rule{
			match: func(line string) bool {
				return strings.HasPrefix(line, kw) ||
					strings.HasPrefix(line, "**"+kw) ||
					strings.Contains(line, "this case should be classified as "+kw) ||
					strings.Contains(line, "classification: "+kw)
			},
			label: string(level.label),
		})
	}

	// last resort: a single unambiguous tier keyword anywhere in the text
	fallback := []rule{
		{match: onlyKeyword("emergent", "routine", "urgent"), label: string(model.PriorityEmergent)},
		{match: onlyKeyword("routine", "emergent", "urgent"), label: string(model.PriorityRoutine)},
		{match: onlyKeyword("urgent", "routine", "emergent"), label: string(model.PriorityUrgent)},
	}

	return &PriorityExtractor{
		phrases:  phrases,
		lines:    lines,
		fallback: fallback,
	}
}

// Extract resolves the priority tier stated in a model response. Returns
// PriorityUnknown when the text names no tier or names several ambiguously;
// Unknown is a valid terminal value, never coerced to a default here.
func (e *PriorityExtractor) Extract(response string) model.Priority {
	if strings.TrimSpace(response) == "" {
		return model.PriorityUnknown
	}

	lower := strings.ToLower(response)

	// 1. Explicit classification phrases anywhere in the text
	if label, ok := firstMatch(e.phrases, lower); ok {
		return model.Priority(label)
	}

	// 2. Lines that state the priority directly
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.ToLower(line))
		if label, ok := firstMatch(e.lines, line); ok {
			return model.Priority(label)
		}
	}

	// 3. Unambiguous keyword fallback
	if label, ok := firstMatch(e.fallback, lower); ok {
		return model.Priority(label)
	}

	return model.PriorityUnknown
}

// HighestUrgency folds a full response to the most urgent tier it mentions.
// Used at the persistence boundary where one referral answer may rank
// several patients; never returns Unknown.
func HighestUrgency(response string) model.Priority {
	lower := strings.ToLower(response)
	if strings.Contains(lower, "emergent") {
		return model.PriorityEmergent
	}
	if strings.Contains(lower, "urgent") {
		return model.PriorityUrgent
	}
	return model.PriorityRoutine
}
