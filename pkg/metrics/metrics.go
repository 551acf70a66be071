package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records bearer token verification results (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kdufoot_auth_attempts_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"result"},
	)

	// PermissionChecks counts gating decisions by tier and outcome (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kdufoot_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "tier", "result"},
	)

	// QuotaConsumptions counts quota usage attempts by outcome (consumed|exceeded|error).
	QuotaConsumptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kdufoot_quota_consumptions_total",
			Help: "Total number of quota consumption attempts",
		},
		[]string{"permission", "result"},
	)

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kdufoot_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kdufoot_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
