package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_provider_calls_total",
		Help: "Voice provider calls by operation and outcome",
	}, []string{"op", "outcome"})

	providerCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_provider_call_duration_seconds",
		Help:    "Voice provider call latency by operation",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"op"})

	voiceStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_status_transitions_total",
		Help: "Voice model status transitions by target status",
	}, []string{"status"})
)

// ObserveProviderCall records one provider round trip.
func ObserveProviderCall(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCalls.WithLabelValues(op, outcome).Inc()
	providerCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveStatusTransition counts a lifecycle transition landing on status.
func ObserveStatusTransition(status string) {
	voiceStatusTransitions.WithLabelValues(status).Inc()
}
