package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg ProviderConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	system, turns := splitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(req.Model), contents, gc)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	out := Response{Content: resp.Text()}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

func (c *GeminiClient) Describe(ctx context.Context, req VisionRequest) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromBytes(req.Image, req.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var gc *genai.GenerateContentConfig
	if req.MaxTokens > 0 {
		gc = &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(req.Model), contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return resp.Text(), nil
}

func (c *GeminiClient) modelFor(model string) string {
	if model != "" {
		return model
	}
	return c.model
}
