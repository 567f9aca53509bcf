package health

import "context"

// StorePinger reports whether the record store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker reports whether the embedding provider answers.
// A nil checker means no provider is configured.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
