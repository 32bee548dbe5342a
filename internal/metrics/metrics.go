package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_requests_total",
			Help: "Total number of chat requests processed",
		},
		[]string{"model", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgw_request_duration_seconds",
			Help:    "Chat request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_tokens_total",
			Help: "Total number of tokens reported by the upstream",
		},
		[]string{"model", "type"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatgw_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_validation_failures_total",
			Help: "Total number of requests rejected by validation",
		},
		[]string{"field"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_upstream_errors_total",
			Help: "Total number of failed upstream calls",
		},
		[]string{"operation"},
	)
)

func RecordRequest(model, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(model, status).Inc()
	RequestDuration.WithLabelValues(model).Observe(durationSec)
}

func RecordTokens(model string, promptTokens, completionTokens int) {
	TokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	TokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

func RecordRateLimitHit() {
	RateLimitHits.Inc()
}

func RecordValidationFailure(field string) {
	ValidationFailures.WithLabelValues(field).Inc()
}

func RecordUpstreamError(operation string) {
	UpstreamErrors.WithLabelValues(operation).Inc()
}
