package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicDefaultMaxTokens is used when the request sets no budget, since the
// Messages API requires one.
const anthropicDefaultMaxTokens = 1024

type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(cfg ProviderConfig) *AnthropicClient {
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
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	system, turns := splitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelFor(req.Model)),
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Messages:    toAnthropicMessages(turns),
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic messages: %w", err)
	}

	return Response{
		Content:      anthropicText(msg),
		TokensUsed:   int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		FinishReason: string(msg.StopReason),
	}, nil
}

func (c *AnthropicClient) Describe(ctx context.Context, req VisionRequest) (string, error) {
	image := anthropic.NewImageBlockBase64(req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelFor(req.Model)),
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(image, anthropic.NewTextBlock(req.Prompt)),
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic vision: %w", err)
	}
	return anthropicText(msg), nil
}

func (c *AnthropicClient) modelFor(model string) string {
	if model != "" {
		return model
	}
	return c.model
}

func maxTokensOrDefault(n int) int64 {
	if n <= 0 {
		return anthropicDefaultMaxTokens
	}
	return int64(n)
}

func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func anthropicText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
