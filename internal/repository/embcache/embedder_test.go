package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/db/memory"
	"github.com/kailas-cloud/feedrank/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	var gotTTL time.Duration
	var gotKey string
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		gotKey, gotTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if gotTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %v", gotTTL)
	}
	if !strings.HasPrefix(gotKey, "feedrank:emb_cache:") {
		t.Errorf("unexpected cache key %q", gotKey)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := encodeEntry([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder called on cache hit")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Fatal("failed embeddings must not be cached")
		return nil
	}

	_, err := ce.Embed(context.Background(), "test text")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEmbed_PlaceholderNotCached(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, Placeholder: true}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Fatal("placeholder vectors must not be cached")
		return nil
	}
	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbed_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("timeout")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("timeout")}
	}

	result, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("cache failures must not fail the embed: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Errorf("unexpected vector %v", result.Embedding)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}
	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner call on corrupt cache entry, got %d", inner.calls)
	}
}

func TestCacheKey_ScopedByModel(t *testing.T) {
	a := New(&mockEmbedder{}, &mockKVStore{}, Config{Model: "m1"}, nil, zap.NewNop())
	b := New(&mockEmbedder{}, &mockKVStore{}, Config{Model: "m2"}, nil, zap.NewNop())
	if a.cacheKey("same") == b.cacheKey("same") {
		t.Error("different models must not share cache keys")
	}
	if a.cacheKey("one") == a.cacheKey("two") {
		t.Error("different texts must not share cache keys")
	}
}

func TestEmbed_MemoryStoreCounters(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_cache_total",
	}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.9}}}
	ce := New(inner, memory.NewStore(), Config{Model: "m"}, counter, zap.NewNop())

	for range 3 {
		if _, err := ce.Embed(context.Background(), "pizza"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", inner.calls)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3e-7}
	out, err := decodeEntry(encodeEntry(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("component %d: %v != %v", i, in[i], out[i])
		}
	}
	if out, err := decodeEntry(nil); err != nil || out != nil {
		t.Errorf("empty entry: got %v, %v", out, err)
	}
	if _, err := decodeEntry([]byte(`[1, "x"]`)); err == nil {
		t.Error("expected error for non-numeric entry")
	}
}
