package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is a computed vector plus provider token usage.
// Usage is zero on cache hits.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// HealthChecker is implemented by providers that can verify upstream
// availability without consuming quota.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
