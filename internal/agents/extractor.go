package agents

import (
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/foodscan"
)

// MetricUpdatedValue is stored for a metric the user talked about. Reading
// the actual number out of free text is not attempted.
const MetricUpdatedValue = "Updated from conversation"

// profileMetrics are the metric names the health-profile agent may propose.
var profileMetrics = []string{
	"weight", "height", "bmi", "bloodSugar", "bloodPressure", "cholesterol",
	"heartRate", "allergies", "dietaryRestrictions", "activityLevel", "sleepHours",
	"waterIntake", "calorieIntake", "proteinIntake", "carbIntake", "fatIntake",
}

type metricCategory struct {
	name     string
	keywords []string
}

// metricCategories are checked against the user's message, in order.
var metricCategories = []metricCategory{
	{"weight", []string{"weight", "pounds", "kg", "lbs"}},
	{"height", []string{"height", "feet", "inches", "cm", "tall"}},
	{"bloodSugar", []string{"blood sugar", "glucose", "diabetes", "mg/dl"}},
	{"bloodPressure", []string{"blood pressure", "bp", "systolic", "diastolic", "mmhg"}},
	{"cholesterol", []string{"cholesterol", "ldl", "hdl", "triglycerides"}},
	{"allergies", []string{"allergy", "allergic", "reaction"}},
	{"dietaryRestrictions", []string{"diet", "restriction", "vegetarian", "vegan", "gluten"}},
}

type ExtractInput struct {
	Agent         conversation.AgentType
	AssistantText string
	UserText      string
	Profile       *conversation.UserProfile
	Objective     string
}

// Delta is the structured outcome of a turn. Only the fields relevant to the
// agent are set.
type Delta struct {
	// Objective is set for the objective agent; it may point to "".
	Objective *string
	Profile   *conversation.UserProfile
	Verdict   *conversation.FoodVerdict
}

// Extract derives structured updates from the model reply and the user's
// message with fixed textual rules. It never fails: anything unmatched
// degrades to an empty or default value. in.Profile is not modified.
func Extract(in ExtractInput) Delta {
	switch in.Agent {
	case conversation.DefineHealthProfile:
		return Delta{Profile: extractProfileMetrics(in)}
	case conversation.CollectHealthMetrics:
		return Delta{Profile: extractCollectedMetrics(in)}
	case conversation.ScanFood:
		verdict := foodscan.Judge(in.AssistantText, in.UserText)
		return Delta{Verdict: &verdict}
	default:
		objective := objectiveFromReply(in.AssistantText)
		if objective == "" {
			objective = objectiveFromUserText(in.UserText)
		}
		return Delta{Objective: &objective}
	}
}

// extractProfileMetrics records every known metric the reply mentions and
// links it to the objective once. Without an objective nothing is recorded.
func extractProfileMetrics(in ExtractInput) *conversation.UserProfile {
	profile := in.Profile.Clone()
	reply := strings.ToLower(in.AssistantText)

	for _, name := range profileMetrics {
		if !strings.Contains(reply, strings.ToLower(name)) {
			continue
		}
		if !profile.EnsureMetrics() {
			break
		}
		if in.Objective == "" {
			continue
		}
		if existing := profile.Metric(name); existing != nil {
			if !existing.HasObjective(in.Objective) {
				existing.Objectives = append(existing.Objectives, in.Objective)
			}
			continue
		}
		profile.Metrics = append(profile.Metrics, conversation.Metric{
			Name:       name,
			Value:      "",
			Objectives: []string{in.Objective},
		})
	}
	return profile
}

// extractCollectedMetrics marks each category the user talked about as updated.
func extractCollectedMetrics(in ExtractInput) *conversation.UserProfile {
	profile := in.Profile.Clone()
	if !profile.EnsureMetrics() {
		return profile
	}
	message := strings.ToLower(in.UserText)

	for _, cat := range metricCategories {
		if !containsAny(message, cat.keywords) {
			continue
		}
		if existing := profile.Metric(cat.name); existing != nil {
			existing.Value = MetricUpdatedValue
			continue
		}
		objectives := []string{}
		if in.Objective != "" {
			objectives = append(objectives, in.Objective)
		}
		profile.Metrics = append(profile.Metrics, conversation.Metric{
			Name:       cat.name,
			Value:      MetricUpdatedValue,
			Objectives: objectives,
		})
	}
	return profile
}
