package recommend

import (
	"context"
	"iter"
	"os"
	"testing"

	"github.com/kailas-cloud/feedrank/internal/domain"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
	"github.com/kailas-cloud/feedrank/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// slicePosts yields posts in slice order, then err if set.
type slicePosts struct {
	posts []dompost.Post
	err   error
}

func (s *slicePosts) All(_ context.Context) iter.Seq2[dompost.Post, error] {
	return func(yield func(dompost.Post, error) bool) {
		for _, p := range s.posts {
			if !yield(p, nil) {
				return
			}
		}
		if s.err != nil {
			yield(dompost.Post{}, s.err)
		}
	}
}

type mockUsers struct {
	getFn func(ctx context.Context, id string) (domuser.User, error)
}

func (m *mockUsers) Get(ctx context.Context, id string) (domuser.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domuser.User{}, domain.ErrNotFound
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0, 0.5}}, nil
}

func post(id string, vec []float32, score *float64) dompost.Post {
	return dompost.Reconstruct(dompost.Snapshot{ID: id, Vector: vec, Score: score})
}

func ptr(f float64) *float64 { return &f }

func resultIDs(results []result.Result) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].ID()
	}
	return out
}
