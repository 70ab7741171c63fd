package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Provider names accepted by LLM_PROVIDER and VISION_PROVIDER.
const (
	ProviderAI21      = "ai21"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	LLM       LLMConfig
	Vision    VisionConfig
	Keys      KeysConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	NATS      NATSConfig
	DB        DBConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LLMConfig selects the chat-completion provider used by every agent.
type LLMConfig struct {
	Provider        string
	ChatModel       string
	ClassifierModel string
	Timeout         time.Duration
}

// VisionConfig selects the provider used to look at food images.
type VisionConfig struct {
	Provider string
	Model    string
}

// KeysConfig holds provider credentials. Values are never logged.
type KeysConfig struct {
	AI21      string
	OpenAI    string
	Anthropic string
	Gemini    string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int
	WindowSec   int
}

type NATSConfig struct {
	URL string
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Enabled reports whether a Postgres host was configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// APIKey returns the credential for the named provider, or "" if none is set.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderAI21:
		return c.Keys.AI21
	case ProviderOpenAI:
		return c.Keys.OpenAI
	case ProviderAnthropic:
		return c.Keys.Anthropic
	case ProviderGemini:
		return c.Keys.Gemini
	default:
		return ""
	}
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(k.String("llm.provider")),
			ChatModel:       k.String("llm.chat.model"),
			ClassifierModel: k.String("llm.classifier.model"),
		},
		Vision: VisionConfig{
			Provider: strings.ToLower(k.String("vision.provider")),
			Model:    k.String("vision.model"),
		},
		Keys: KeysConfig{
			AI21:      k.String("ai21.api.key"),
			OpenAI:    k.String("openai.api.key"),
			Anthropic: k.String("anthropic.api.key"),
			Gemini:    k.String("gemini.api.key"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:     k.Bool("ratelimit.enabled"),
			MaxRequests: k.Int("ratelimit.max.requests"),
			WindowSec:   k.Int("ratelimit.window.sec"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5002
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderAI21
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = defaultChatModel(cfg.LLM.Provider)
	}
	if cfg.LLM.ClassifierModel == "" {
		cfg.LLM.ClassifierModel = defaultClassifierModel(cfg.LLM.Provider)
	}
	if cfg.Vision.Provider == "" {
		cfg.Vision.Provider = ProviderGemini
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = defaultVisionModel(cfg.Vision.Provider)
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 60
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "healthassist"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "healthassist"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}

	timeoutStr := k.String("llm.timeout")
	if timeoutStr == "" {
		timeoutStr = "60s"
	}
	var err error
	cfg.LLM.Timeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing llm timeout: %w", err)
	}

	return cfg, nil
}

func defaultChatModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini:
		return "gemini-1.5-flash"
	default:
		return "jamba-mini"
	}
}

func defaultClassifierModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini:
		return "gemini-1.5-flash"
	default:
		return "jamba-large"
	}
}

func defaultVisionModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderAnthropic:
		return "claude-3-5-sonnet-latest"
	default:
		return "gemini-1.5-flash"
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
