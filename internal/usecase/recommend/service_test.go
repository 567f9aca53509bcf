package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"pgregory.net/rapid"

	"github.com/kailas-cloud/feedrank/internal/db/memory"
	"github.com/kailas-cloud/feedrank/internal/domain"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/domain/reduce"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
	"github.com/kailas-cloud/feedrank/internal/metrics"
	postrepo "github.com/kailas-cloud/feedrank/internal/repository/post"
)

func newService(t *testing.T, posts PostSource, users UserReader) *Service {
	t.Helper()
	reducer, err := reduce.New(3)
	if err != nil {
		t.Fatalf("reducer: %v", err)
	}
	return New(posts, users, &mockEmbedder{}, reducer, 3, nil)
}

func mustRequest(t *testing.T, v []float32, topN int, m mode.Mode) *request.Request {
	t.Helper()
	req, err := request.New(v, 3, topN, m)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return &req
}

func TestRecommend_MemoryStoreScenario(t *testing.T) {
	st := memory.NewStore()
	repo := postrepo.New(st, "", 3)
	for _, p := range []dompost.Post{
		post("p1", []float32{1, 0, 0}, nil),
		post("p2", []float32{0, 1, 0}, nil),
		post("p3", []float32{1, 0, 0}, nil),
	} {
		if err := repo.Insert(context.Background(), &p); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	svc := newService(t, repo, &mockUsers{})

	results, err := svc.Recommend(context.Background(), mustRequest(t, []float32{1, 0, 0}, 3, mode.Similarity))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultIDs(results); !slices.Equal(got, []string{"p1", "p3", "p2"}) {
		t.Errorf("results = %v, want [p1 p3 p2]", got)
	}
}

func TestRecommend_ExclusionCounted(t *testing.T) {
	before := testutil.ToFloat64(metrics.RankerExcludedTotal.WithLabelValues(reasonNoVector))
	svc := newService(t, &slicePosts{posts: []dompost.Post{
		post("fresh", nil, nil),
		post("ok", []float32{0, 0, 1}, nil),
	}}, &mockUsers{})

	results, err := svc.Recommend(context.Background(), mustRequest(t, []float32{0, 0, 1}, 5, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID() != "ok" {
		t.Errorf("results = %v", resultIDs(results))
	}
	if got := testutil.ToFloat64(metrics.RankerExcludedTotal.WithLabelValues(reasonNoVector)) - before; got != 1 {
		t.Errorf("excluded no_vector delta = %v, want 1", got)
	}
}

func TestRecommend_TopNAboveCandidatesReturnsAll(t *testing.T) {
	posts := make([]dompost.Post, 150)
	for i := range posts {
		posts[i] = post(fmt.Sprintf("p%03d", i), []float32{1, float32(i), 0}, nil)
	}
	svc := newService(t, &slicePosts{posts: posts}, &mockUsers{})

	results, err := svc.Recommend(context.Background(), mustRequest(t, []float32{1, 0, 0}, 200, mode.Similarity))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(posts) {
		t.Errorf("got %d results, want %d", len(results), len(posts))
	}
}

func TestRecommend_LoadError(t *testing.T) {
	boom := errors.New("scan failed")
	svc := newService(t, &slicePosts{err: boom}, &mockUsers{})

	if _, err := svc.Recommend(context.Background(), mustRequest(t, []float32{1, 0, 0}, 5, "")); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRecommend_ResultLengthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "candidates")
		topN := rapid.IntRange(1, 10).Draw(t, "topN")
		posts := make([]dompost.Post, n)
		for i := range posts {
			vec := []float32{
				float32(rapid.IntRange(-3, 3).Draw(t, "x")),
				float32(rapid.IntRange(-3, 3).Draw(t, "y")),
				float32(rapid.IntRange(-3, 3).Draw(t, "z")),
			}
			posts[i] = post(string(rune('a'+i)), vec, nil)
		}
		reducer, _ := reduce.New(3)
		svc := New(&slicePosts{posts: posts}, &mockUsers{}, &mockEmbedder{}, reducer, 3, nil)
		req, err := request.New([]float32{1, 2, 3}, 3, topN, mode.Similarity)
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		results, err := svc.Recommend(context.Background(), &req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) > topN {
			t.Fatalf("got %d results, topN %d", len(results), topN)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Score() > results[i-1].Score() {
				t.Fatalf("results not sorted descending at %d", i)
			}
		}
	})
}

func TestRecommendForUser(t *testing.T) {
	users := &mockUsers{getFn: func(_ context.Context, id string) (domuser.User, error) {
		switch id {
		case "u1":
			return domuser.Reconstruct(domuser.Snapshot{ID: id, Vector: []float32{0, 1, 0}}), nil
		case "fresh":
			return domuser.Reconstruct(domuser.Snapshot{ID: id}), nil
		}
		return domuser.User{}, domain.ErrNotFound
	}}
	svc := newService(t, &slicePosts{posts: []dompost.Post{
		post("p1", []float32{1, 0, 0}, nil),
		post("p2", []float32{0, 1, 0}, nil),
	}}, users)

	results, err := svc.RecommendForUser(context.Background(), "u1", 1, mode.Similarity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultIDs(results); !slices.Equal(got, []string{"p2"}) {
		t.Errorf("results = %v", got)
	}

	for _, id := range []string{"fresh", "ghost"} {
		if _, err := svc.RecommendForUser(context.Background(), id, 1, ""); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestRecommendText(t *testing.T) {
	svc := newService(t, &slicePosts{posts: []dompost.Post{
		post("p1", []float32{0, 1, 0}, nil),
		post("p2", []float32{1, 0, 0}, nil),
	}}, &mockUsers{})

	// mockEmbedder returns [1 0 0 0.5]; truncation keeps [1 0 0].
	results, err := svc.RecommendText(context.Background(), "pizza", 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultIDs(results); !slices.Equal(got, []string{"p2"}) {
		t.Errorf("results = %v", got)
	}
}

func TestRecommendText_Errors(t *testing.T) {
	svc := newService(t, &slicePosts{}, &mockUsers{})
	if _, err := svc.RecommendText(context.Background(), "", 5, ""); !errors.Is(err, domain.ErrMalformedQuery) {
		t.Errorf("empty text: expected ErrMalformedQuery, got %v", err)
	}

	reducer, _ := reduce.New(3)
	failing := New(&slicePosts{}, &mockUsers{}, &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, domain.ErrProviderTimeout
		},
	}, reducer, 3, nil)
	if _, err := failing.RecommendText(context.Background(), "x", 5, ""); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
}
