package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh, reducer and ranker Prometheus metrics.
var (
	RefreshItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_items_total",
			Help:      "Records processed by the update orchestrator",
		},
		[]string{"kind", "status"}, // kind: post/user, status: ok/not_found/provider_error/error
	)

	RefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full refresh pass per record kind",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"kind"},
	)

	ReducerFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reducer_fallback_total",
			Help:      "Reductions that truncated instead of running PCA",
		},
	)

	RankerExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranker_excluded_total",
			Help:      "Candidates excluded from ranking",
		},
		[]string{"reason"}, // no_vector / zero_norm / dim_mismatch
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation latency including the candidate scan",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers refresh/reducer/ranker metrics. Called from main.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(RefreshItemsTotal)
		prometheus.MustRegister(RefreshDuration)
		prometheus.MustRegister(ReducerFallbackTotal)
		prometheus.MustRegister(RankerExcludedTotal)
		prometheus.MustRegister(RecommendDuration)
	})
}
