package agents

import (
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
)

// keywordRule maps any of a set of substrings to an agent. Rule tables are
// evaluated in order and the first hit wins.
type keywordRule struct {
	agent    conversation.AgentType
	keywords []string
}

func (r keywordRule) matches(lowered string) bool {
	return containsAny(lowered, r.keywords)
}

// labelRules interpret the classifier model's reply.
var labelRules = []keywordRule{
	{conversation.DefineObjective, []string{"defineobjective", "objective"}},
	{conversation.DefineHealthProfile, []string{"definehealth", "profile"}},
	{conversation.CollectHealthMetrics, []string{"collect", "metrics"}},
	{conversation.ScanFood, []string{"scan", "food"}},
}

// fallbackRules classify the last user message when the model is unreachable.
var fallbackRules = []keywordRule{
	{conversation.DefineObjective, []string{"goal", "objective", "want to", "lose weight"}},
	{conversation.CollectHealthMetrics, []string{"metrics", "measurement", "weight", "blood"}},
	{conversation.ScanFood, []string{"food", "eat", "meal", "scan"}},
}

// matchRules returns the agent of the first matching rule.
func matchRules(rules []keywordRule, text string) (conversation.AgentType, bool) {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		if r.matches(lowered) {
			return r.agent, true
		}
	}
	return "", false
}

// ParseAgentLabel maps free model output onto an agent. ok is false when
// nothing matched and the default was used.
func ParseAgentLabel(reply string) (agent conversation.AgentType, ok bool) {
	if a, ok := matchRules(labelRules, strings.TrimSpace(reply)); ok {
		return a, true
	}
	return conversation.DefaultAgent, false
}

// ClassifyByKeywords is the offline classifier used when the model call fails.
func ClassifyByKeywords(userText string) conversation.AgentType {
	if a, ok := matchRules(fallbackRules, userText); ok {
		return a
	}
	return conversation.DefaultAgent
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
