package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthassist_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthassist_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthassist_llm_requests_total",
			Help: "Total number of calls to language and vision model providers.",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthassist_llm_request_duration_seconds",
			Help:    "Model provider call latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	AgentClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthassist_agent_classifications_total",
			Help: "Agent classifications by chosen agent and decision source.",
		},
		[]string{"agent", "source"},
	)

	AgentTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthassist_agent_turns_total",
			Help: "Conversation turns handled, by agent and outcome.",
		},
		[]string{"agent", "status"},
	)

	AuditEventsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthassist_audit_events_persisted_total",
			Help: "Turn and scan events consumed from NATS, by subject and outcome.",
		},
		[]string{"subject", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		LLMRequestsTotal,
		LLMRequestDuration,
		AgentClassificationsTotal,
		AgentTurnsTotal,
		AuditEventsPersisted,
	)
}
