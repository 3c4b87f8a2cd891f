package mistral

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miknow_completion_requests_total",
		Help: "Mistral API calls by operation and outcome.",
	}, []string{"kind", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "miknow_completion_duration_seconds",
		Help:    "Latency of Mistral chat completions.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"kind"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miknow_completion_breaker_state",
		Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})
)

func observe(kind, outcome string, d time.Duration) {
	requestsTotal.WithLabelValues(kind, outcome).Inc()
	if d > 0 {
		requestDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}
