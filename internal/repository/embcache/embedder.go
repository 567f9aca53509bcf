// Package embcache is a store-backed caching decorator for domain.Embedder.
// Entries hold the vector in the same JSON form as stored records and are keyed
// by a digest of the model name and the input text.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/repository/codec"
)

const keySegment = "emb_cache:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config scopes cache entries. TTL <= 0 keeps entries forever.
type Config struct {
	KeyPrefix string
	Model     string
	TTL       time.Duration
}

// CachedEmbedder serves repeated texts from the store instead of the provider.
// Cache failures are logged and treated as misses.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	cfg     Config
	results *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. results is a counter vec labelled "result" (hit/miss); nil disables it.
func New(
	inner domain.Embedder,
	s store,
	cfg Config,
	results *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, store: s, cfg: cfg, results: results, logger: logger}
}

// Embed implements domain.Embedder. A hit reports zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec := c.lookup(ctx, key); vec != nil {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	// Placeholder vectors stand in for a failed call and must not outlive it.
	if !res.Placeholder && len(res.Embedding) > 0 {
		c.remember(ctx, key, res.Embedding)
	}
	return res, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := c.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx) //nolint:wrapcheck // passthrough
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.cfg.Model + "\x00" + text))
	return c.cfg.KeyPrefix + keySegment + hex.EncodeToString(sum[:])
}

// lookup returns nil on a miss, a store error or an unreadable entry.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) []float32 {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	vec, err := decodeEntry(data)
	if err != nil {
		c.logger.Warn("Discarding unreadable embedding cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (c *CachedEmbedder) remember(ctx context.Context, key string, vec []float32) {
	if err := c.store.SetWithTTL(ctx, key, encodeEntry(vec), c.cfg.TTL); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.results != nil {
		c.results.WithLabelValues(result).Inc()
	}
}

func encodeEntry(vec []float32) []byte {
	return []byte(codec.EncodeVector(vec))
}

// decodeEntry returns nil, nil for an empty entry.
func decodeEntry(data []byte) ([]float32, error) {
	vec, err := codec.DecodeVector(string(data), 0)
	if err != nil {
		return nil, fmt.Errorf("cache entry: %w", err)
	}
	return vec, nil
}
