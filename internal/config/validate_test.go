package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5002},
		Log:    LogConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:        ProviderAI21,
			ChatModel:       "jamba-mini",
			ClassifierModel: "jamba-large",
			Timeout:         60 * time.Second,
		},
		Vision:    VisionConfig{Provider: ProviderGemini, Model: "gemini-1.5-flash"},
		Keys:      KeysConfig{AI21: "ai21-key", Gemini: "gemini-key"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		RateLimit: RateLimitConfig{Enabled: true, MaxRequests: 60, WindowSec: 60},
		DB:        DBConfig{Host: "localhost", Port: 5432},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_MissingKeysOnlyWarn(t *testing.T) {
	cfg := validConfig()
	cfg.Keys = KeysConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing API keys must not fail validation, got: %v", err)
	}
}

func TestValidate_ServerPortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT error, got: %v", err)
	}
}

func TestValidate_UnknownLLMProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "cohere"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LLM_PROVIDER") {
		t.Fatalf("expected LLM_PROVIDER error, got: %v", err)
	}
}

func TestValidate_AI21CannotServeVision(t *testing.T) {
	cfg := validConfig()
	cfg.Vision.Provider = ProviderAI21
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "VISION_PROVIDER") {
		t.Fatalf("expected VISION_PROVIDER error, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("expected LOG_LEVEL error, got: %v", err)
	}
}

func TestValidate_RateLimitRequiresRedis(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Host = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "REDIS_HOST") {
		t.Fatalf("expected REDIS_HOST error, got: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Log.Format = "xml"
	cfg.LLM.Timeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT", "LLM_TIMEOUT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in error, got: %v", want, err)
		}
	}
}

func TestAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Keys = KeysConfig{AI21: "a", OpenAI: "o", Anthropic: "c", Gemini: "g"}

	cases := map[string]string{
		ProviderAI21:      "a",
		ProviderOpenAI:    "o",
		ProviderAnthropic: "c",
		ProviderGemini:    "g",
		"unknown":         "",
	}
	for provider, want := range cases {
		if got := cfg.APIKey(provider); got != want {
			t.Errorf("APIKey(%q) = %q, want %q", provider, got, want)
		}
	}
}
