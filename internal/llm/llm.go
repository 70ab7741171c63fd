// Package llm adapts hosted chat-completion and vision APIs to one small
// interface so agents never depend on a particular vendor SDK.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Request is a single chat completion. An empty Model selects the
// provider's configured default.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// Client produces chat completions.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// VisionRequest asks a model to describe an image.
type VisionRequest struct {
	Model     string
	Prompt    string
	Image     []byte
	MIMEType  string
	MaxTokens int
}

// VisionClient turns an image plus an instruction into text.
type VisionClient interface {
	Describe(ctx context.Context, req VisionRequest) (string, error)
	Name() string
}

var (
	// ErrNotConfigured reports an absent capability, usually a missing API key.
	ErrNotConfigured = errors.New("service configuration error")
	// ErrEmptyResponse is returned when a provider answers without usable text.
	ErrEmptyResponse = errors.New("returned unusable content")
)

// ProviderError is a failed or unusable provider call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err came from a provider call.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// splitSystem separates system messages from the conversational turns for
// APIs that take the system prompt as a dedicated parameter.
func splitSystem(msgs []Message) (system string, turns []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
