package agents

import (
	"regexp"
	"strings"
)

// Units and timeframes match in any case; the user's spelling is kept.
var (
	weightAmountRe = regexp.MustCompile(`(?i)\b(\d+)\s*(pound|pounds|lbs|kg|kilo|kilos)\b`)
	timeframeRe    = regexp.MustCompile(`(?i)\b(in|within|over)\s*(\d+)\s*(week|weeks|month|months|day|days)\b`)
	looseMarkerRe  = regexp.MustCompile(`(?i)health objective:`)
)

// objectiveRule derives an objective from the user's own words. The first
// rule whose predicate holds decides the result, even if it yields "".
type objectiveRule struct {
	name    string
	applies func(lowered string) bool
	derive  func(text, lowered string) string
}

var objectiveRules = []objectiveRule{
	{
		name: "weight-loss",
		applies: func(l string) bool {
			return containsAny(l, []string{"lose", "losing"}) &&
				containsAny(l, []string{"pound", "pounds", "lbs", "kg", "kilo", "kilos", "weight"})
		},
		derive: weightLossObjective,
	},
	{
		name:    "diabetes",
		applies: func(l string) bool { return strings.Contains(l, "diabetes") },
		derive: func(_, l string) string {
			switch {
			case containsAny(l, []string{"type 2", "type2"}):
				return "Manage type 2 diabetes through diet, exercise, and regular monitoring"
			case containsAny(l, []string{"type 1", "type1"}):
				return "Manage type 1 diabetes through diet, exercise, and regular monitoring"
			}
			return "Manage diabetes through diet, exercise, and regular monitoring"
		},
	},
	{
		name:    "blood-pressure",
		applies: func(l string) bool { return containsAny(l, []string{"blood pressure", "hypertension"}) },
		derive: func(_, _ string) string {
			return "Lower blood pressure through diet, exercise, and stress management"
		},
	},
	{
		name:    "fitness",
		applies: func(l string) bool { return containsAny(l, []string{"fitness", "muscle", "strength"}) },
		derive: func(_, l string) string {
			if containsAny(l, []string{"build", "gain", "increase"}) {
				return "Build muscle and increase strength through regular exercise"
			}
			return "Improve overall fitness and physical health"
		},
	},
}

// weightLossObjective keeps the user's unit spelling, so "lbs" stays "lbs".
func weightLossObjective(text, _ string) string {
	amount := weightAmountRe.FindStringSubmatch(text)
	if amount == nil {
		return ""
	}
	objective := "Lose " + amount[1] + " " + amount[2]
	if tf := timeframeRe.FindStringSubmatch(text); tf != nil {
		objective += " in " + tf[2] + " " + tf[3]
	}
	return objective
}

// objectiveFromUserText applies objectiveRules to the user's message.
func objectiveFromUserText(text string) string {
	lowered := strings.ToLower(text)
	for _, r := range objectiveRules {
		if r.applies(lowered) {
			return r.derive(text, lowered)
		}
	}
	return ""
}

// objectiveFromReply looks for the finalized objective in the model's reply,
// first by the exact marker and then by a looser case-insensitive one.
func objectiveFromReply(reply string) string {
	if _, after, found := strings.Cut(reply, ObjectiveMarker); found {
		return strings.TrimSpace(after)
	}
	if loc := looseMarkerRe.FindStringIndex(reply); loc != nil {
		return strings.TrimSpace(reply[loc[1]:])
	}
	return ""
}
