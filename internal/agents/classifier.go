package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
	"github.com/healthassist/healthassist/internal/metrics"
)

// Source records how a classification was reached.
type Source string

const (
	SourceDefault  Source = "default"
	SourceMarker   Source = "marker"
	SourceModel    Source = "llm"
	SourceFallback Source = "keywords"
	SourceExplicit Source = "explicit"
)

// agentMarker lets a system message pin the agent, e.g. "agent_type: scanFood".
const agentMarker = "agent_type:"

// contextTurns is how many trailing messages the classifier model sees.
const contextTurns = 3

const classifierPrompt = `You are an agent classifier for a health assistant application. Your task is to determine which specialized agent
should handle the user's request based on their message and conversation context.

Available agents are:
1. defineObjective - For setting or refining health goals and objectives (e.g., lose weight, manage diabetes)
2. defineHealthProfile - For identifying which health metrics should be tracked for a given objective
3. collectHealthMetrics - For collecting specific health data points from the user
4. scanFood - For evaluating food choices against health objectives

Respond with ONLY ONE of these agent names, nothing else.`

type Classification struct {
	Agent  conversation.AgentType
	Source Source
}

// Classifier picks the agent for a turn. It prefers an explicit marker, then
// asks the model, then falls back to keywords. It never fails.
type Classifier struct {
	client llm.Client
	model  string
}

// NewClassifier creates a classifier. client may be nil, in which case every
// undecided turn goes to the keyword fallback.
func NewClassifier(client llm.Client, model string) *Classifier {
	return &Classifier{client: client, model: model}
}

func (c *Classifier) Classify(ctx context.Context, conv conversation.Conversation, profile *conversation.UserProfile) Classification {
	result := c.classify(ctx, conv, profile)
	metrics.AgentClassificationsTotal.WithLabelValues(string(result.Agent), string(result.Source)).Inc()
	return result
}

func (c *Classifier) classify(ctx context.Context, conv conversation.Conversation, profile *conversation.UserProfile) Classification {
	last, ok := conv.LastUser()
	if !ok {
		return Classification{Agent: conversation.DefaultAgent, Source: SourceDefault}
	}

	if agent, ok := markedAgent(conv); ok {
		return Classification{Agent: agent, Source: SourceMarker}
	}

	userText := last.Content.String()

	reply, err := c.ask(ctx, conv, profile, userText)
	if err != nil {
		agent := ClassifyByKeywords(userText)
		slog.Warn("agent classification fell back to keywords", "error", err, "agent", agent)
		return Classification{Agent: agent, Source: SourceFallback}
	}

	agent, matched := ParseAgentLabel(reply)
	if !matched {
		slog.Warn("unexpected agent classification response, using default", "response", reply, "agent", agent)
	}
	slog.Debug("agent classified", "response", reply, "agent", agent)
	return Classification{Agent: agent, Source: SourceModel}
}

func (c *Classifier) ask(ctx context.Context, conv conversation.Conversation, profile *conversation.UserProfile, userText string) (string, error) {
	if c.client == nil {
		return "", llm.ErrNotConfigured
	}

	resp, err := c.client.Complete(ctx, llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifierPrompt},
			{Role: llm.RoleUser, Content: classifierQuestion(conv, profile, userText)},
		},
		MaxTokens:   ClassifierBudget.MaxTokens,
		Temperature: ClassifierBudget.Temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(resp.Content)), nil
}

func classifierQuestion(conv conversation.Conversation, profile *conversation.UserProfile, userText string) string {
	profileJSON := "None"
	if !profile.IsEmpty() {
		if data, err := json.Marshal(profile); err == nil {
			profileJSON = string(data)
		}
	}

	contextJSON := "[]"
	if data, err := json.Marshal(conv.Tail(contextTurns).Plain()); err == nil {
		contextJSON = string(data)
	}

	return fmt.Sprintf(
		"Based on this conversation, which agent should handle this request? Last user message: '%s'\n\nUser profile: %s\n\nFull conversation context: %s",
		userText, profileJSON, contextJSON)
}

// markedAgent scans system messages for an agent marker naming a known agent.
func markedAgent(conv conversation.Conversation) (conversation.AgentType, bool) {
	for _, m := range conv {
		if m.Role != conversation.RoleSystem || !m.Content.IsText() {
			continue
		}
		_, value, found := strings.Cut(m.Content.String(), agentMarker)
		if !found {
			continue
		}
		if agent, err := conversation.ParseAgentType(strings.TrimSpace(value)); err == nil {
			return agent, true
		}
	}
	return "", false
}
