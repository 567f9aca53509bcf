package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const embeddingSubsystem = "embedding"

// Embedding provider, cache and fallback metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "requests_total",
		Help:      "Embedding provider calls by outcome",
	}, []string{"provider", "model", "status"}) // status: success/error

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Latency of successful embedding provider calls",
		Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10),
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "tokens_total",
		Help:      "Tokens reported by the embedding provider",
	}, []string{"provider", "model", "type"}) // type: prompt/total

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "errors_total",
		Help:      "Failed embedding provider calls by cause",
	}, []string{"provider", "model", "error_type"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "cache_total",
		Help:      "Embedding cache lookups",
	}, []string{"result"}) // hit/miss

	EmbeddingFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "fallback_total",
		Help:      "Placeholder vectors served after a provider failure",
	})
)

var embOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors once.
func RegisterEmbeddingMetrics() {
	embOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			EmbeddingFallbackTotal,
		)
	})
}
