// Package profile links a user's health profile to a finalized objective.
package profile

import (
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
)

// Unknown is stored for an attribute the objective needs but the user has
// not provided yet.
const Unknown = "unknown"

// placeholderRule adds attributes when the objective mentions any trigger
// word. All placeholders of a matching rule are added.
type placeholderRule struct {
	matches      func(lowered string) bool
	placeholders []placeholder
}

type placeholder struct {
	key   string
	value func() any
}

func unknown() any   { return Unknown }
func emptyList() any { return []any{} }

func anyOf(words ...string) func(string) bool {
	return func(l string) bool {
		for _, w := range words {
			if strings.Contains(l, w) {
				return true
			}
		}
		return false
	}
}

var placeholderRules = []placeholderRule{
	{
		matches: func(l string) bool {
			return strings.Contains(l, "lose") && anyOf("weight", "pounds", "lbs")(l)
		},
		placeholders: []placeholder{
			{"weight", unknown},
			{"targetWeight", unknown},
			{"height", unknown},
			{"activityLevel", unknown},
		},
	},
	{
		matches: anyOf("gluten", "allergy", "vegetarian", "vegan"),
		placeholders: []placeholder{
			{"dietaryRestrictions", emptyList},
			{"allergies", emptyList},
		},
	},
	{
		matches:      anyOf("diabetes", "blood sugar", "glucose"),
		placeholders: []placeholder{{"bloodSugar", unknown}},
	},
	{
		matches: anyOf("cholesterol", "heart"),
		placeholders: []placeholder{
			{"cholesterol", unknown},
			{"bloodPressure", unknown},
		},
	},
}

// Associate returns a copy of p with placeholders for the attributes the
// objective calls for and every attribute linked to the objective. Existing
// values are never overwritten.
func Associate(p *conversation.UserProfile, objective string) *conversation.UserProfile {
	out := p.Clone()
	lowered := strings.ToLower(objective)
	for _, rule := range placeholderRules {
		if !rule.matches(lowered) {
			continue
		}
		for _, ph := range rule.placeholders {
			out.SetDefault(ph.key, ph.value())
		}
	}
	out.AttachObjective(objective)
	return out
}
