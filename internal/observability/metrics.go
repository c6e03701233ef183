package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CasesRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casetrack",
		Name:      "cases_registered_total",
		Help:      "Total number of registered missing-person cases",
	})

	SubmissionsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casetrack",
		Name:      "submissions_received_total",
		Help:      "Total number of public submissions received",
	})

	MatchesConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casetrack",
		Name:      "matches_confirmed_total",
		Help:      "Total number of confirmed case matches",
	})

	MatchConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "casetrack",
		Name:      "match_conflicts_total",
		Help:      "Match attempts rejected because an entity was already matched",
	})

	CasesBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "casetrack",
		Name:      "case_events_backlog",
		Help:      "Messages retained in the CASES stream",
	})

	GenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "casetrack",
		Name:      "generation_failures_total",
		Help:      "Text generation soft failures by operation",
	}, []string{"operation"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "casetrack",
		Name:      "generation_duration_seconds",
		Help:      "Duration of text provider calls",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "casetrack",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "casetrack",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
