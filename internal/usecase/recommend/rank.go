package recommend

import (
	"errors"
	"slices"

	"github.com/kailas-cloud/feedrank/internal/domain"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	"github.com/kailas-cloud/feedrank/internal/domain/vector"
)

// DefaultBlendAlpha weighs similarity against normalized engagement in blend mode.
const DefaultBlendAlpha = 0.7

// Exclusion reasons for feedrank_ranker_excluded_total.
const (
	reasonNoVector    = "no_vector"
	reasonZeroNorm    = "zero_norm"
	reasonDimMismatch = "dim_mismatch"
)

type scored struct {
	id         string
	similarity float64
	engagement float64
}

// ranking accumulates candidates in input order.
type ranking struct {
	query    []float32
	items    []scored
	excluded map[string]int
}

func newRanking(query []float32) *ranking {
	return &ranking{query: query, excluded: make(map[string]int)}
}

// add scores one candidate against the query or records why it was excluded.
func (r *ranking) add(p *dompost.Post) {
	if !p.HasVector() {
		r.excluded[reasonNoVector]++
		return
	}
	sim, err := vector.Cosine(r.query, p.Vector())
	if err != nil {
		if errors.Is(err, domain.ErrDegenerateVector) {
			r.excluded[reasonZeroNorm]++
		} else {
			r.excluded[reasonDimMismatch]++
		}
		return
	}
	eng, _ := p.EngagementScore()
	r.items = append(r.items, scored{id: p.ID(), similarity: sim, engagement: eng})
}

// top orders the candidates for mode m and returns at most n results.
// Ties keep input order.
func (r *ranking) top(m mode.Mode, alpha float64, n int) []result.Result {
	var maxEng float64
	for _, it := range r.items {
		maxEng = max(maxEng, it.engagement)
	}

	results := make([]result.Result, 0, len(r.items))
	for _, it := range r.items {
		var score float64
		switch m {
		case mode.Engagement:
			score = it.engagement
		case mode.Blend:
			var norm float64
			if maxEng > 0 {
				norm = it.engagement / maxEng
			}
			score = alpha*it.similarity + (1-alpha)*norm
		default:
			score = it.similarity
		}
		results = append(results, result.New(it.id, score, it.similarity, it.engagement))
	}

	slices.SortStableFunc(results, func(a, b result.Result) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return 0
		}
	})

	if len(results) > n {
		results = results[:n]
	}
	return results
}
