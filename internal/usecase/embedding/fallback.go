package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// FallbackEmbedder serves a placeholder vector when the primary provider fails.
// Only provider failures fall back; caller cancellation is returned as is.
type FallbackEmbedder struct {
	primary     domain.Embedder
	placeholder domain.Embedder
	fallbacks   prometheus.Counter
	logger      *zap.Logger
}

// NewFallbackEmbedder wraps primary with a placeholder embedder.
// fallbacks may be nil.
func NewFallbackEmbedder(
	primary, placeholder domain.Embedder,
	fallbacks prometheus.Counter, logger *zap.Logger,
) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:     primary,
		placeholder: placeholder,
		fallbacks:   fallbacks,
		logger:      logger,
	}
}

// Embed tries the primary embedder first.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.primary.Embed(ctx, text)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		return domain.EmbeddingResult{}, err
	}

	f.logger.Warn("Embedding provider failed, serving placeholder vector", zap.Error(err))
	res, phErr := f.placeholder.Embed(ctx, text)
	if phErr != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("placeholder after %w: %w", err, phErr)
	}
	if f.fallbacks != nil {
		f.fallbacks.Inc()
	}
	res.Placeholder = true
	return res, nil
}

// HealthCheck reports the primary's health.
func (f *FallbackEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := f.primary.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
