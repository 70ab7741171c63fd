package agents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
	inats "github.com/healthassist/healthassist/internal/nats"
)

type fakeRecorder struct {
	events []inats.TurnEvent
	err    error
}

func (f *fakeRecorder) PublishTurnEvent(_ context.Context, e inats.TurnEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func newTestService(chat *fakeLLM, recorder TurnRecorder) *Service {
	var client llm.Client
	if chat != nil {
		client = chat
	}
	return NewService(client, NewClassifier(client, "classifier"), "chat", recorder)
}

func TestRespond_RejectsTrailingNonUser(t *testing.T) {
	for _, last := range []conversation.Message{assistant("Hello!"), system("note")} {
		fake := &fakeLLM{replies: []string{"should not be used"}}
		svc := newTestService(fake, nil)

		resp, err := svc.Respond(context.Background(), RespondInput{
			Conversation: conversation.Conversation{user("hi"), last},
		})
		require.NoError(t, err)
		assert.Equal(t, conversation.StatusError, resp.Status)
		assert.Equal(t, "Last message must be from user", resp.Message)
		assert.Len(t, resp.UpdatedConversation, 2)
		assert.Empty(t, fake.reqs)
	}
}

func TestRespond_EmptyConversation(t *testing.T) {
	svc := newTestService(&fakeLLM{}, nil)

	_, err := svc.Respond(context.Background(), RespondInput{})
	assert.True(t, IsValidationError(err))
}

func TestRespond_DefineObjective(t *testing.T) {
	fake := &fakeLLM{replies: []string{"How soon would you like to reach that?"}}
	recorder := &fakeRecorder{}
	svc := newTestService(fake, recorder)

	conv := conversation.Conversation{
		assistant("Hi, what is your goal?"),
		user("I want to lose 10 lbs in 2 months"),
	}
	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conv,
		Agent:        conversation.DefineObjective,
		RequestID:    "req-1",
		Endpoint:     "define-objective",
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.StatusSuccess, resp.Status)
	assert.Equal(t, conversation.DefineObjective, resp.AgentType)
	require.Len(t, resp.UpdatedConversation, 3)
	assert.Equal(t, "How soon would you like to reach that?", resp.UpdatedConversation[2].Content.String())
	require.NotNil(t, resp.DetectedObjective)
	assert.Equal(t, "Lose 10 lbs in 2 months", *resp.DetectedObjective)
	assert.Equal(t, "Lose 10 lbs in 2 months", *resp.Objective)

	// caller's conversation is not modified
	assert.Len(t, conv, 2)

	require.Len(t, fake.reqs, 1)
	req := fake.reqs[0]
	assert.Equal(t, "chat", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, elicitObjectiveBlock)
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Hi, what is your goal?"}, req.Messages[1])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "I want to lose 10 lbs in 2 months"}, req.Messages[2])

	require.Len(t, recorder.events, 1)
	ev := recorder.events[0]
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, "define-objective", ev.Endpoint)
	assert.Equal(t, "defineObjective", ev.AgentType)
	assert.Equal(t, "explicit", ev.Source)
	assert.Equal(t, "success", ev.Status)
	assert.Equal(t, "fake", ev.Provider)
	assert.Equal(t, int64(42), ev.TokensUsed)
	assert.Equal(t, 3, ev.ConversationSize)
	assert.Equal(t, "Lose 10 lbs in 2 months", ev.DetectedObjective)
}

func TestRespond_NoDetectedObjectiveWhenEmpty(t *testing.T) {
	svc := newTestService(&fakeLLM{replies: []string{"Tell me more."}}, nil)

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("hello")},
		Agent:        conversation.DefineObjective,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.DetectedObjective)
	require.NotNil(t, resp.Objective)
	assert.Empty(t, *resp.Objective)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "detectedObjective")
}

func TestRespond_ClassifiesWhenAgentMissing(t *testing.T) {
	fake := &fakeLLM{replies: []string{"scanfood", "No, avoid pizza, it is processed."}}
	svc := newTestService(fake, nil)

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("Can I eat pizza?")},
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.ScanFood, resp.AgentType)
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.IsAllowed)
	assert.Equal(t, "pizza", resp.Result.FoodItem)
	require.Len(t, fake.reqs, 2)
	assert.Equal(t, "classifier", fake.reqs[0].Model)
	assert.Contains(t, fake.reqs[1].Messages[0].Content, scanFoodBlock)
}

func TestRespond_HealthProfileNeedsObjective(t *testing.T) {
	fake := &fakeLLM{}
	svc := newTestService(fake, nil)

	_, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("which metrics?")},
		Agent:        conversation.DefineHealthProfile,
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Objective is required for health profile definition", ve.Message)
	assert.Empty(t, fake.reqs)
}

func TestRespond_HealthProfile(t *testing.T) {
	fake := &fakeLLM{replies: []string{"Please track your bloodPressure and cholesterol."}}
	svc := newTestService(fake, nil)

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("what should I track?")},
		Agent:        conversation.DefineHealthProfile,
		Objective:    "Lower blood pressure",
	})
	require.NoError(t, err)

	require.Len(t, resp.UpdatedConversation, 3)
	assert.Equal(t, conversation.RoleSystem, resp.UpdatedConversation[0].Role)
	assert.Equal(t,
		"Based on the objective 'Lower blood pressure', determine what health metrics should be tracked.",
		resp.UpdatedConversation[0].Content.String())
	assert.Equal(t, conversation.RoleUser, resp.UpdatedConversation[1].Role)

	require.NotNil(t, resp.UpdatedUserProfile)
	assert.NotNil(t, resp.UpdatedUserProfile.Metric("bloodPressure"))
	assert.NotNil(t, resp.UpdatedUserProfile.Metric("cholesterol"))

	// system notes are not forwarded as turns
	require.Len(t, fake.reqs, 1)
	require.Len(t, fake.reqs[0].Messages, 2)
	assert.Contains(t, fake.reqs[0].Messages[0].Content, "Lower blood pressure")
}

func TestRespond_CollectMetrics(t *testing.T) {
	svc := newTestService(&fakeLLM{replies: []string{"Recorded your weight."}}, nil)

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("I weigh 180 lbs")},
		Agent:        conversation.CollectHealthMetrics,
		Objective:    "Lose 10 lbs",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.UpdatedUserProfile)
	w := resp.UpdatedUserProfile.Metric("weight")
	require.NotNil(t, w)
	assert.Equal(t, MetricUpdatedValue, w.Value)
}

func TestRespond_ProviderErrorAppendsOneApology(t *testing.T) {
	fake := &fakeLLM{err: &llm.ProviderError{Provider: "fake", Err: errors.New("503 from upstream")}}
	recorder := &fakeRecorder{}
	svc := newTestService(fake, recorder)

	conv := conversation.Conversation{
		user("hi"),
		assistant("Hello! What is your goal?"),
		user("Lose weight"),
	}
	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conv,
		Agent:        conversation.CollectHealthMetrics,
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.StatusError, resp.Status)
	assert.Equal(t, "fake provider: 503 from upstream", resp.Message)
	require.Len(t, resp.UpdatedConversation, 4)
	assert.Equal(t, conv, resp.UpdatedConversation[:3])
	assert.Equal(t, assistant(FailureReply), resp.UpdatedConversation[3])
	assert.Nil(t, resp.UpdatedUserProfile)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, "error", recorder.events[0].Status)
	assert.Contains(t, recorder.events[0].Error, "503 from upstream")
}

func TestRespond_NotConfigured(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("Can I eat an apple?")},
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.StatusError, resp.Status)
	assert.Equal(t, "Service configuration error", resp.Message)
	// classification still works offline
	assert.Equal(t, conversation.ScanFood, resp.AgentType)
	require.Len(t, resp.UpdatedConversation, 2)
	assert.Equal(t, assistant(UnavailableReply), resp.UpdatedConversation[1])
}

func TestRespond_NormalisesNonTextContent(t *testing.T) {
	fake := &fakeLLM{replies: []string{"What would you like to do?"}}
	svc := newTestService(fake, nil)

	var conv conversation.Conversation
	require.NoError(t, json.Unmarshal([]byte(`[{"role":"user","content":{"isTrusted":true}}]`), &conv))

	resp, err := svc.Respond(context.Background(), RespondInput{Conversation: conv, Agent: conversation.DefineObjective})
	require.NoError(t, err)

	assert.True(t, resp.UpdatedConversation[0].Content.IsText())
	assert.Equal(t, conversation.InteractionPlaceholder, resp.UpdatedConversation[0].Content.String())
	assert.Equal(t, conversation.InteractionPlaceholder, fake.reqs[0].Messages[1].Content)
}

func TestRespond_ClassifierContextHidesObjectContent(t *testing.T) {
	fake := &fakeLLM{replies: []string{"defineobjective", "What is your goal?"}}
	svc := newTestService(fake, nil)

	var conv conversation.Conversation
	require.NoError(t, json.Unmarshal([]byte(`[
		{"role":"user","content":{"isTrusted":true,"secretField":"raw-object"}},
		{"role":"assistant","content":"ok"},
		{"role":"user","content":"hello"}
	]`), &conv))

	_, err := svc.Respond(context.Background(), RespondInput{Conversation: conv})
	require.NoError(t, err)

	require.NotEmpty(t, fake.reqs)
	question := fake.reqs[0].Messages[1].Content
	assert.NotContains(t, question, "secretField")
	assert.NotContains(t, question, "isTrusted")
	assert.Contains(t, question, conversation.InteractionPlaceholder)
}

func TestRespond_RecorderFailureIgnored(t *testing.T) {
	svc := newTestService(&fakeLLM{replies: []string{"ok"}}, &fakeRecorder{err: errors.New("nats down")})

	resp, err := svc.Respond(context.Background(), RespondInput{
		Conversation: conversation.Conversation{user("hi")},
		Agent:        conversation.ScanFood,
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusSuccess, resp.Status)
}
