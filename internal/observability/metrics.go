package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EstimatesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_quoting", Name: "estimates_total", Help: "Total phase-1 estimates produced"})
	FinalizesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_quoting", Name: "finalizes_total", Help: "Total phase-2 committed quotes produced"})

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip_quoting", Name: "provider_fallbacks_total", Help: "Directions lookups served by the local estimate"},
		[]string{"reason"},
	)
	ProviderErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_quoting", Name: "provider_errors_total", Help: "Unclassified directions provider errors propagated to callers"})

	SurgeQuotes = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_quoting", Name: "surge_quotes_total", Help: "Committed quotes priced with a surge multiplier above 1.0"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip_quoting", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip_quoting",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
