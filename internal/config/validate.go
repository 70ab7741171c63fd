package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var knownProviders = map[string]bool{
	ProviderAI21:      true,
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderGemini:    true,
}

var visionProviders = map[string]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderGemini:    true,
}

// Validate checks Config for problems that would prevent the service from starting.
// It collects all errors into a single joined error. Missing provider credentials are
// reported as warnings only: the matching endpoints answer with a configuration error.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	if !knownProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Sprintf("LLM_PROVIDER %q is not supported", c.LLM.Provider))
	}
	if !visionProviders[c.Vision.Provider] {
		errs = append(errs, fmt.Sprintf("VISION_PROVIDER %q is not supported", c.Vision.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, "LLM_TIMEOUT must be positive")
	}

	if c.RateLimit.Enabled {
		if !c.Redis.Enabled() {
			errs = append(errs, "RATELIMIT_ENABLED requires REDIS_HOST")
		}
		if c.RateLimit.MaxRequests < 1 {
			errs = append(errs, "RATELIMIT_MAX_REQUESTS must be at least 1")
		}
		if c.RateLimit.WindowSec < 1 {
			errs = append(errs, "RATELIMIT_WINDOW_SEC must be at least 1")
		}
	}
	if c.Redis.Enabled() && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}
	if c.DB.Enabled() && (c.DB.Port < 1 || c.DB.Port > 65535) {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}

	if c.APIKey(c.LLM.Provider) == "" && knownProviders[c.LLM.Provider] {
		slog.Warn("API key missing for chat provider, agent endpoints will report a configuration error",
			"provider", c.LLM.Provider, "env", strings.ToUpper(c.LLM.Provider)+"_API_KEY")
	}
	if c.APIKey(c.Vision.Provider) == "" && visionProviders[c.Vision.Provider] {
		slog.Warn("API key missing for vision provider, image endpoints will report a configuration error",
			"provider", c.Vision.Provider, "env", strings.ToUpper(c.Vision.Provider)+"_API_KEY")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
