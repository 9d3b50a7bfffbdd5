package extract

import "strings"

// rule pairs a predicate with the label it resolves to. Rule tables are
// built once at construction and never mutated; slice order encodes
// precedence.
type rule struct {
	match func(string) bool
	label string
}

// firstMatch applies rules in order and returns the first matching label
func firstMatch(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		if r.match(text) {
			return r.label, true
		}
	}
	return "", false
}

// contains builds a substring predicate
func contains(substr string) func(string) bool {
	return func(text string) bool {
		return strings.Contains(text, substr)
	}
}

// onlyKeyword builds a predicate that requires want to appear while every
// other keyword is absent
func onlyKeyword(want string, others ...string) func(string) bool {
	return func(text string) bool {
		if !strings.Contains(text, want) {
			return false
		}
		for _, o := range others {
			if strings.Contains(text, o) {
				return false
			}
		}
		return true
	}
}
