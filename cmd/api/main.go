package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/healthassist/healthassist/internal/agents"
	"github.com/healthassist/healthassist/internal/api"
	"github.com/healthassist/healthassist/internal/audit"
	"github.com/healthassist/healthassist/internal/config"
	"github.com/healthassist/healthassist/internal/database"
	"github.com/healthassist/healthassist/internal/foodscan"
	"github.com/healthassist/healthassist/internal/llm"
	mw "github.com/healthassist/healthassist/internal/middleware"
	inats "github.com/healthassist/healthassist/internal/nats"
	"github.com/healthassist/healthassist/internal/profile"
	iredis "github.com/healthassist/healthassist/internal/redis"
	"github.com/healthassist/healthassist/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Models
	models := llm.NewFromConfig(ctx, cfg)
	deps := []api.Dependency{
		{Name: "llm", Check: capability(models.Chat != nil)},
		{Name: "vision", Check: capability(models.Vision != nil)},
	}

	// Redis (rate limiting)
	var rateLimiter *mw.RateLimiter
	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("connecting to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		if cfg.RateLimit.Enabled {
			rateLimiter = mw.NewRateLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec)
		}
		deps = append(deps, api.Dependency{Name: "redis", Check: iredis.NewChecker(redisClient).Check})
	} else {
		deps = append(deps, api.Dependency{Name: "redis"})
	}

	// PostgreSQL (audit storage)
	var auditRepo *audit.Repository
	if cfg.DB.Enabled() {
		pool, err := database.Open(ctx, cfg.DB)
		if err != nil {
			slog.Error("connecting to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		auditRepo = audit.NewRepository(pool)
		deps = append(deps, api.Dependency{Name: "database", Check: database.NewChecker(pool).Check})
	} else {
		deps = append(deps, api.Dependency{Name: "database"})
	}

	// NATS (turn and scan events)
	var turnRecorder agents.TurnRecorder
	var scanRecorder foodscan.ScanRecorder
	if cfg.NATS.URL != "" {
		natsClient, err := inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher := inats.NewPublisher(natsClient.JetStream())
		turnRecorder = publisher
		scanRecorder = publisher
		deps = append(deps, api.Dependency{Name: "nats", Check: func(context.Context) error {
			if !natsClient.Healthy() {
				return errors.New("nats disconnected")
			}
			return nil
		}})

		if auditRepo != nil {
			consumer := audit.NewConsumer(auditRepo, inats.NewConsumerManager(natsClient.JetStream()))
			go func() {
				if err := consumer.Start(ctx); err != nil {
					slog.Error("audit consumer stopped", "error", err)
				}
			}()
		}
	} else {
		deps = append(deps, api.Dependency{Name: "nats"})
	}

	// Agents and food images
	recognizer := foodscan.NewRecognizer(models.Vision, cfg.Vision.Model)
	classifier := agents.NewClassifier(models.Chat, cfg.LLM.ClassifierModel)
	agentSvc := agents.NewService(models.Chat, classifier, cfg.LLM.ChatModel, turnRecorder)
	agentHandler := agents.NewHandler(agentSvc, recognizer)

	analyzer := foodscan.NewAnalyzer(models.Vision, cfg.Vision.Model, models.Chat, cfg.LLM.ChatModel)
	scanHandler := foodscan.NewHandler(recognizer, analyzer, scanRecorder)

	profileHandler := profile.NewHandler()

	var auditStore audit.Store
	if auditRepo != nil {
		auditStore = auditRepo
	}
	auditHandler := audit.NewHandler(auditStore)

	// Router
	routerCfg := api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		Dependencies:       deps,
	}
	if rateLimiter != nil {
		routerCfg.RateLimiter = rateLimiter.Middleware
	}

	router := api.NewRouter(routerCfg, api.HandlerSet{
		DefineObjective:      agentHandler.DefineObjective,
		CollectHealthMetrics: agentHandler.CollectHealthMetrics,
		ScanFood:             agentHandler.ScanFood,
		Orchestrate:          agentHandler.Orchestrate,

		DefineHealthProfile: profileHandler.Define,

		ImageScan: scanHandler.ImageScan,
		Analyze:   scanHandler.Analyze,

		ListTurns: auditHandler.ListTurns,
		ListScans: auditHandler.ListScans,
	})

	srv := server.New(cfg.Server, cfg.LLM.Timeout, router)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// capability reports a model as healthy when it is configured. There is no
// cheap liveness call for the providers.
func capability(configured bool) func(context.Context) error {
	if !configured {
		return nil
	}
	return func(context.Context) error { return nil }
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
