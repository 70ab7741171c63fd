package agents

import (
	"errors"

	"github.com/healthassist/healthassist/internal/conversation"
)

// Budget is the completion allowance for one model call.
type Budget struct {
	MaxTokens   int
	Temperature float64
}

var (
	// ChatBudget applies to every agent turn.
	ChatBudget = Budget{MaxTokens: 500, Temperature: 0.7}
	// ClassifierBudget keeps classification short and near-deterministic.
	ClassifierBudget = Budget{MaxTokens: 10, Temperature: 0.1}
)

// Fixed assistant replies appended when a turn cannot reach the model.
const (
	UnavailableReply = "I'm sorry, but I'm having trouble connecting to my language model. Please try again later."
	FailureReply     = "I apologize, but I encountered an error processing your request. Please try again."
)

// ConfigurationErrorMessage is shown to callers instead of any detail about
// missing credentials.
const ConfigurationErrorMessage = "Service configuration error"

// ValidationError is a malformed request: missing conversation, missing
// objective, or a conversation that does not end with a user turn.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	errConversationRequired = &ValidationError{Message: "Conversation is required"}
	errLastMessageNotUser   = &ValidationError{Message: "Last message must be from user"}
	errObjectiveRequired    = &ValidationError{Message: "Objective is required for health profile definition"}
)

// RespondInput is one turn request. Agent may be empty, in which case the
// classifier picks one.
type RespondInput struct {
	Conversation conversation.Conversation
	Profile      *conversation.UserProfile
	Objective    string
	Agent        conversation.AgentType
	RequestID    string
	// Endpoint names the route that produced the turn, for the audit trail.
	Endpoint string
}

// TurnRequest is the JSON body shared by the conversational endpoints.
type TurnRequest struct {
	Conversation conversation.Conversation `json:"conversation" validate:"required,min=1,dive"`
	UserProfile  *conversation.UserProfile `json:"userProfile"`
	Objective    string                    `json:"objective"`
	AgentType    string                    `json:"agentType"`
	ImageData    string                    `json:"imageData"`
}
