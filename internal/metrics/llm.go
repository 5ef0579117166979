package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM and orchestration Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promethia",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	StreamRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "stream_runs_total",
			Help:      "Orchestration runs by terminal state",
		},
		[]string{"outcome"}, // "done" / "error" / "blocked" / "cancelled"
	)

	StreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "stream_chunks_total",
			Help:      "Model text deltas relayed to clients",
		},
	)

	StageDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promethia",
			Name:      "stage_degradations_total",
			Help:      "Optional pipeline stages that failed and were skipped",
		},
		[]string{"stage"}, // "moderation" / "memory" / "search"
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(StreamRunsTotal)
	prometheus.MustRegister(StreamChunksTotal)
	prometheus.MustRegister(StageDegradationsTotal)
	llmMetricsRegistered = true
}
