package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/healthassist/healthassist/internal/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Conversational agents
	DefineObjective      http.HandlerFunc
	CollectHealthMetrics http.HandlerFunc
	ScanFood             http.HandlerFunc
	Orchestrate          http.HandlerFunc

	DefineHealthProfile http.HandlerFunc

	// Food images
	ImageScan http.HandlerFunc
	Analyze   http.HandlerFunc

	// Audit trail
	ListTurns http.HandlerFunc
	ListScans http.HandlerFunc
}

// Dependency is reported by /health. A nil Check means the dependency is not
// configured, which does not make the service unhealthy.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	// RateLimiter, when set, wraps every /api route.
	RateLimiter  func(http.Handler) http.Handler
	Dependencies []Dependency
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/health", healthHandler(cfg.Dependencies))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter)
		}

		r.Post("/define-objective", h.DefineObjective)
		r.Post("/define-health-profile", h.DefineHealthProfile)
		r.Post("/collect-health-metrics", h.CollectHealthMetrics)
		r.Post("/scan-food", h.ScanFood)
		r.Post("/orchestrate", h.Orchestrate)

		r.Post("/image-scan", h.ImageScan)
		r.Post("/analyze", h.Analyze)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/turns", h.ListTurns)
			r.Get("/scans", h.ListScans)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, ErrNotFound)
	})

	return r
}

func healthHandler(deps []Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		health := map[string]string{"status": "healthy"}
		status := http.StatusOK

		for _, dep := range deps {
			switch {
			case dep.Check == nil:
				health[dep.Name] = "not configured"
			case dep.Check(ctx) != nil:
				health[dep.Name] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			default:
				health[dep.Name] = "healthy"
			}
		}

		JSON(w, status, health)
	}
}
