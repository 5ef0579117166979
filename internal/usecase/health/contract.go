package health

import "context"

// DBPinger reports whether the memory store backend is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker reports whether the embedding provider is responding.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
