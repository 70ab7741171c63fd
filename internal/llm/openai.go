package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// AI21BaseURL is the OpenAI-compatible endpoint of AI21 Studio.
const AI21BaseURL = "https://api.ai21.com/studio/v1/"

// ProviderConfig holds what every SDK-backed client needs.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient talks to any endpoint implementing the OpenAI chat completions
// API. It serves both OpenAI itself and AI21 Jamba.
type OpenAIClient struct {
	client openai.Client
	name   string
	model  string
}

// NewOpenAIClient creates a client for api.openai.com, or cfg.BaseURL when set.
func NewOpenAIClient(cfg ProviderConfig) *OpenAIClient {
	return newOpenAICompatible("openai", cfg)
}

// NewAI21Client creates a client for AI21 Studio's Jamba models.
func NewAI21Client(cfg ProviderConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = AI21BaseURL
	}
	return newOpenAICompatible("ai21", cfg)
}

func newOpenAICompatible(name string, cfg ProviderConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		name:   name,
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Name() string {
	return c.name
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.modelFor(req.Model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("%s chat completion: %w", c.name, err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}

	choice := completion.Choices[0]
	return Response{
		Content:      choice.Message.Content,
		TokensUsed:   int(completion.Usage.TotalTokens),
		FinishReason: choice.FinishReason,
	}, nil
}

// Describe sends the image inline as a base64 data URI.
func (c *OpenAIClient) Describe(ctx context.Context, req VisionRequest) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
	}
	params := openai.ChatCompletionNewParams{
		Model:    c.modelFor(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s vision completion: %w", c.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) modelFor(model string) string {
	if model != "" {
		return model
	}
	return c.model
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
