package llm

import (
	"context"
	"log/slog"

	"github.com/healthassist/healthassist/internal/config"
)

// Set is the model capability available to the service. A nil field means
// the capability is absent and callers must report a configuration error.
type Set struct {
	Chat   Client
	Vision VisionClient
}

// NewFromConfig builds the chat and vision clients selected in cfg. A provider
// without an API key, or one whose SDK fails to initialise, is left nil and
// logged; it never prevents startup.
func NewFromConfig(ctx context.Context, cfg *config.Config) Set {
	var set Set

	chatCfg := ProviderConfig{
		APIKey:  cfg.APIKey(cfg.LLM.Provider),
		Model:   cfg.LLM.ChatModel,
		Timeout: cfg.LLM.Timeout,
	}
	if chatCfg.APIKey == "" {
		slog.Warn("chat model disabled: API key not set", "provider", cfg.LLM.Provider)
	} else if c, err := newChat(ctx, cfg.LLM.Provider, chatCfg); err != nil {
		slog.Error("chat model disabled", "provider", cfg.LLM.Provider, "error", err)
	} else {
		set.Chat = Instrument(c)
		slog.Info("chat model ready", "provider", c.Name(), "model", cfg.LLM.ChatModel)
	}

	visionCfg := ProviderConfig{
		APIKey:  cfg.APIKey(cfg.Vision.Provider),
		Model:   cfg.Vision.Model,
		Timeout: cfg.LLM.Timeout,
	}
	if visionCfg.APIKey == "" {
		slog.Warn("vision model disabled: API key not set", "provider", cfg.Vision.Provider)
	} else if v, err := newVision(ctx, cfg.Vision.Provider, visionCfg); err != nil {
		slog.Error("vision model disabled", "provider", cfg.Vision.Provider, "error", err)
	} else {
		set.Vision = InstrumentVision(v)
		slog.Info("vision model ready", "provider", v.Name(), "model", cfg.Vision.Model)
	}

	return set
}

func newChat(ctx context.Context, provider string, pc ProviderConfig) (Client, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(pc), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(pc), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, pc)
	case config.ProviderAI21:
		return NewAI21Client(pc), nil
	default:
		return nil, ErrNotConfigured
	}
}

func newVision(ctx context.Context, provider string, pc ProviderConfig) (VisionClient, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(pc), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(pc), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, pc)
	default:
		return nil, ErrNotConfigured
	}
}
