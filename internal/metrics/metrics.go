// Package metrics holds the Prometheus collectors shared by providers and services.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudly",
			Name:      "provider_requests_total",
			Help:      "Outbound provider calls by provider, operation and HTTP status.",
		},
		[]string{"provider", "operation", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cloudly",
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of outbound provider calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	assistantSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudly",
			Name:      "assistant_sync_total",
			Help:      "Assistant sync runs by outcome (created, updated, invalid, provider_error, out_of_sync, error).",
		},
		[]string{"outcome"},
	)
)

// ObserveProviderCall records one outbound call. status is 0 when the request
// never produced an HTTP response.
func ObserveProviderCall(provider, operation string, status int, elapsed time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	providerRequestsTotal.WithLabelValues(provider, operation, label).Inc()
	providerRequestDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// AssistantSync records the outcome of one assistant sync run.
func AssistantSync(outcome string) {
	assistantSyncTotal.WithLabelValues(outcome).Inc()
}
