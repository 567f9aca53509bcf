package recommend

import (
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
)

func TestRanking_TiesKeepInputOrder(t *testing.T) {
	r := newRanking([]float32{1, 0, 0})
	for _, p := range []struct {
		id  string
		vec []float32
	}{
		{"p1", []float32{1, 0, 0}},
		{"p2", []float32{0, 1, 0}},
		{"p3", []float32{1, 0, 0}},
	} {
		pp := post(p.id, p.vec, nil)
		r.add(&pp)
	}

	top2 := resultIDs(r.top(mode.Similarity, DefaultBlendAlpha, 2))
	if !slices.Equal(top2, []string{"p1", "p3"}) {
		t.Errorf("top 2 = %v, want [p1 p3]", top2)
	}
	top3 := r.top(mode.Similarity, DefaultBlendAlpha, 3)
	if got := resultIDs(top3); !slices.Equal(got, []string{"p1", "p3", "p2"}) {
		t.Errorf("top 3 = %v, want [p1 p3 p2]", got)
	}
	if top3[0].Similarity() != 1 || top3[2].Similarity() != 0 {
		t.Errorf("similarities = %v, %v", top3[0].Similarity(), top3[2].Similarity())
	}
}

func TestRanking_ExcludesAbsentAndZeroNorm(t *testing.T) {
	r := newRanking([]float32{1, 0, 0})
	candidates := []struct {
		id  string
		vec []float32
	}{
		{"none", nil},
		{"zero", []float32{0, 0, 0}},
		{"ok", []float32{0.5, 0.5, 0}},
	}
	for _, c := range candidates {
		p := post(c.id, c.vec, nil)
		r.add(&p)
	}

	got := resultIDs(r.top(mode.Similarity, DefaultBlendAlpha, 10))
	if !slices.Equal(got, []string{"ok"}) {
		t.Errorf("results = %v, want [ok]", got)
	}
	if r.excluded[reasonNoVector] != 1 || r.excluded[reasonZeroNorm] != 1 {
		t.Errorf("excluded = %v", r.excluded)
	}
}

func TestRanking_EngagementMode(t *testing.T) {
	r := newRanking([]float32{1, 0, 0})
	for _, p := range []struct {
		id    string
		score *float64
	}{
		{"low", ptr(1)},
		{"missing", nil},
		{"high", ptr(5)},
	} {
		pp := post(p.id, []float32{1, 0, 0}, p.score)
		r.add(&pp)
	}

	results := r.top(mode.Engagement, DefaultBlendAlpha, 5)
	if got := resultIDs(results); !slices.Equal(got, []string{"high", "low", "missing"}) {
		t.Errorf("order = %v", got)
	}
	if results[2].Engagement() != 0 {
		t.Errorf("missing score must rank as 0, got %v", results[2].Engagement())
	}
}

func TestRanking_BlendMode(t *testing.T) {
	r := newRanking([]float32{1, 0})
	similar := post("similar", []float32{1, 0}, ptr(0))
	popular := post("popular", []float32{1, 1}, ptr(10))
	r.add(&similar)
	r.add(&popular)

	results := r.top(mode.Blend, 0.7, 2)
	// popular: 0.7*0.7071 + 0.3*1 = 0.795; similar: 0.7*1 + 0 = 0.7.
	if got := resultIDs(results); !slices.Equal(got, []string{"popular", "similar"}) {
		t.Errorf("order = %v", got)
	}
	want := 0.7*math.Sqrt2/2 + 0.3
	if math.Abs(results[0].Score()-want) > 1e-6 {
		t.Errorf("blend score = %v, want %v", results[0].Score(), want)
	}
}

func TestRanking_BlendZeroMaxEngagement(t *testing.T) {
	r := newRanking([]float32{1, 0})
	a := post("a", []float32{1, 0}, nil)
	r.add(&a)

	results := r.top(mode.Blend, 0.7, 1)
	if math.Abs(results[0].Score()-0.7) > 1e-9 {
		t.Errorf("score = %v, want 0.7 with no engagement signal", results[0].Score())
	}
}

func TestRanking_Empty(t *testing.T) {
	if got := newRanking([]float32{1}).top(mode.Similarity, DefaultBlendAlpha, 5); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}
