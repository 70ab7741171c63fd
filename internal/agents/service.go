package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
	"github.com/healthassist/healthassist/internal/metrics"
	inats "github.com/healthassist/healthassist/internal/nats"
)

// TurnRecorder receives one event per completed turn. Failures are logged
// and never affect the response.
type TurnRecorder interface {
	PublishTurnEvent(ctx context.Context, event inats.TurnEvent) error
}

// Service runs conversational turns against the chat model.
type Service struct {
	chat       llm.Client
	classifier *Classifier
	model      string
	recorder   TurnRecorder
}

// NewService creates the turn service. chat may be nil when no provider is
// configured; turns then fail with a configuration error. recorder may be nil.
func NewService(chat llm.Client, classifier *Classifier, model string, recorder TurnRecorder) *Service {
	return &Service{
		chat:       chat,
		classifier: classifier,
		model:      model,
		recorder:   recorder,
	}
}

// Respond runs one turn. The returned error is always a *ValidationError;
// provider and configuration failures are reported inside the response with
// the attempted turn kept in UpdatedConversation.
func (s *Service) Respond(ctx context.Context, in RespondInput) (*conversation.Response, error) {
	start := time.Now()

	if len(in.Conversation) == 0 {
		return nil, errConversationRequired
	}
	conv := in.Conversation.Clone()
	last := conv[len(conv)-1]
	if last.Role != conversation.RoleUser {
		return &conversation.Response{
			Status:              conversation.StatusError,
			Message:             errLastMessageNotUser.Message,
			UpdatedConversation: conv,
		}, nil
	}
	if !last.Content.IsText() {
		conv[len(conv)-1] = conversation.NewMessage(conversation.RoleUser, last.Content.String())
	}
	userText := conv[len(conv)-1].Content.String()

	profile := in.Profile.Clone()

	classification := Classification{Agent: in.Agent, Source: SourceExplicit}
	if in.Agent == "" {
		classification = s.classifier.Classify(ctx, conv, profile)
	}
	agent := classification.Agent

	if agent == conversation.DefineHealthProfile {
		if in.Objective == "" {
			return nil, errObjectiveRequired
		}
		conv = conv.InsertBeforeLast(conversation.NewMessage(conversation.RoleSystem,
			fmt.Sprintf("Based on the objective '%s', determine what health metrics should be tracked.", in.Objective)))
	}

	resp := &conversation.Response{AgentType: agent}
	reply, err := s.complete(ctx, agent, conv, profile, in.Objective)
	if err != nil {
		resp.Status = conversation.StatusError
		if errors.Is(err, llm.ErrNotConfigured) {
			resp.Message = ConfigurationErrorMessage
			conv = append(conv, conversation.NewMessage(conversation.RoleAssistant, UnavailableReply))
		} else {
			resp.Message = err.Error()
			conv = append(conv, conversation.NewMessage(conversation.RoleAssistant, FailureReply))
		}
		slog.Error("agent turn failed", "agent", agent, "request_id", in.RequestID, "error", err)
		resp.UpdatedConversation = conv
		s.record(ctx, in, classification, resp, llm.Response{}, err, start)
		return resp, nil
	}

	conv = append(conv, conversation.NewMessage(conversation.RoleAssistant, reply.Content))
	resp.Status = conversation.StatusSuccess
	resp.UpdatedConversation = conv
	fold(resp, Extract(ExtractInput{
		Agent:         agent,
		AssistantText: reply.Content,
		UserText:      userText,
		Profile:       profile,
		Objective:     in.Objective,
	}))

	s.record(ctx, in, classification, resp, reply, nil, start)
	return resp, nil
}

// complete sends the system prompt, every earlier user or assistant turn and
// the final user turn. System notes in the conversation are not forwarded.
func (s *Service) complete(ctx context.Context, agent conversation.AgentType, conv conversation.Conversation, profile *conversation.UserProfile, objective string) (llm.Response, error) {
	if s.chat == nil {
		return llm.Response{}, llm.ErrNotConfigured
	}

	messages := make([]llm.Message, 0, len(conv)+1)
	messages = append(messages, llm.Message{
		Role: llm.RoleSystem,
		Content: BuildSystemPrompt(PromptInput{
			Agent:              agent,
			Profile:            profile,
			Objective:          objective,
			ConversationLength: len(conv),
		}),
	})
	for _, m := range conv[:len(conv)-1] {
		switch m.Role {
		case conversation.RoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: m.Content.String()})
		case conversation.RoleAssistant:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: m.Content.String()})
		}
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: conv[len(conv)-1].Content.String()})

	return s.chat.Complete(ctx, llm.Request{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   ChatBudget.MaxTokens,
		Temperature: ChatBudget.Temperature,
	})
}

// fold copies the fields of d that belong to the response's agent.
func fold(resp *conversation.Response, d Delta) {
	switch resp.AgentType {
	case conversation.DefineHealthProfile, conversation.CollectHealthMetrics:
		resp.UpdatedUserProfile = d.Profile
	case conversation.ScanFood:
		resp.Result = d.Verdict
	default:
		resp.Objective = d.Objective
		if d.Objective != nil && *d.Objective != "" {
			resp.DetectedObjective = d.Objective
		}
	}
}

func (s *Service) record(ctx context.Context, in RespondInput, c Classification, resp *conversation.Response, reply llm.Response, turnErr error, start time.Time) {
	metrics.AgentTurnsTotal.WithLabelValues(string(c.Agent), string(resp.Status)).Inc()
	if s.recorder == nil {
		return
	}

	event := inats.TurnEvent{
		ID:               uuid.New(),
		RequestID:        in.RequestID,
		Endpoint:         in.Endpoint,
		AgentType:        string(c.Agent),
		Source:           string(c.Source),
		Status:           string(resp.Status),
		Model:            s.model,
		TokensUsed:       int64(reply.TokensUsed),
		ConversationSize: len(resp.UpdatedConversation),
		DurationMS:       time.Since(start).Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
	if s.chat != nil {
		event.Provider = s.chat.Name()
	}
	if resp.DetectedObjective != nil {
		event.DetectedObjective = *resp.DetectedObjective
	}
	if turnErr != nil {
		event.Error = turnErr.Error()
	}

	if err := s.recorder.PublishTurnEvent(ctx, event); err != nil {
		slog.Warn("publishing turn event", "error", err, "request_id", in.RequestID)
	}
}
