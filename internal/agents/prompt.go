package agents

import (
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
)

const basePersona = "You are a health advisor specialized in nutrition and personalized health recommendations."

// finalizeThreshold is the conversation length at which the objective agent
// stops asking questions and proposes a final objective.
const finalizeThreshold = 5

// ObjectiveMarker is the phrase the objective agent is told to use when it
// states the finalized objective.
const ObjectiveMarker = "I've refined your health objective:"

const (
	elicitObjectiveBlock = `You're helping the user define a health objective. Ask relevant follow-up questions to understand their goals better.
Focus on gathering information about their current health status, preferences, and constraints.
Ask one question at a time to guide the conversation efficiently.`

	finalizeObjectiveBlock = `Based on the conversation so far, create a finalized health objective for the user.
Format your response as: 'Based on our conversation, ` + ObjectiveMarker + ` [OBJECTIVE]'
The objective should be specific, measurable, achievable, relevant, and time-bound.
IMPORTANT: Preserve the user's exact wording for units (e.g., if they say 'lbs', don't change it to 'pounds').`

	healthProfileBlock = `Your task is to determine which health metrics will be needed to support the user's objective.
DO NOT collect values yet - only identify the metrics that should be tracked.
For each metric you identify, explain why it's relevant to the objective.
Format your response to clearly list each metric needed.`

	collectMetricsBlock = `You're helping the user track their health metrics. Ask for specific values for metrics relevant to their objective.
Extract precise values from the user's responses and acknowledge when you've recorded a metric.
Ask for one metric at a time and confirm values before moving to the next one.
Format your responses to clearly show what metrics you've recorded.`

	scanFoodBlock = `Analyze the food item mentioned by the user and provide feedback on whether it aligns with their health objectives.
Consider nutritional value, portion size, and how it fits into their overall diet plan.
Format your response to clearly state whether the food is recommended or not, and provide a brief explanation.
Your response MUST include a clear yes/no recommendation and detailed reasoning.`
)

type PromptInput struct {
	Agent     conversation.AgentType
	Profile   *conversation.UserProfile
	Objective string
	// ConversationLength is the number of messages including the current user turn.
	ConversationLength int
}

// BuildSystemPrompt assembles the system instruction for a turn. The output
// depends only on its input.
func BuildSystemPrompt(in PromptInput) string {
	var sb strings.Builder
	sb.WriteString(basePersona)
	sb.WriteString("\n")
	sb.WriteString(agentBlock(in.Agent, in.ConversationLength))

	if !in.Profile.IsEmpty() {
		sb.WriteString("\n\nUser profile information:\n")
		for _, key := range in.Profile.Keys() {
			sb.WriteString("- ")
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(in.Profile.Describe(key))
			sb.WriteString("\n")
		}
	}

	if in.Objective != "" {
		sb.WriteString("\n\nThe user's current health objective is: ")
		sb.WriteString(in.Objective)
	}

	return sb.String()
}

func agentBlock(agent conversation.AgentType, conversationLength int) string {
	switch agent {
	case conversation.DefineHealthProfile:
		return healthProfileBlock
	case conversation.CollectHealthMetrics:
		return collectMetricsBlock
	case conversation.ScanFood:
		return scanFoodBlock
	default:
		if conversationLength >= finalizeThreshold {
			return finalizeObjectiveBlock
		}
		return elicitObjectiveBlock
	}
}
