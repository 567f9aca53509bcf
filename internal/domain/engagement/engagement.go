// Package engagement computes the scalar popularity signal of a post.
package engagement

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// Weights multiply each interaction count. All weights must be non-negative.
type Weights struct {
	Likes    float64
	Views    float64
	Comments float64
}

// DefaultWeights mirror the refresh job coefficients.
func DefaultWeights() Weights {
	return Weights{Likes: 0.4, Views: 0.4, Comments: 0.2}
}

// Validate checks that every weight is finite and non-negative.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"likes": w.Likes, "views": w.Views, "comments": w.Comments} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s=%v: %w", name, v, domain.ErrInvalidInput)
		}
	}
	return nil
}

// Counts are the interaction cardinalities of a post.
type Counts struct {
	Likes    int
	Views    int
	Comments int
}

// Scorer applies a fixed set of weights.
type Scorer struct {
	w Weights
}

// NewScorer validates weights and returns a scorer.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{w: w}, nil
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights { return s.w }

// Score returns w_likes*likes + w_views*views + w_comments*comments.
// Negative counts are rejected with ErrInvalidInput.
func (s *Scorer) Score(c Counts) (float64, error) {
	if c.Likes < 0 || c.Views < 0 || c.Comments < 0 {
		return 0, fmt.Errorf("negative interaction count %+v: %w", c, domain.ErrInvalidInput)
	}
	return s.w.Likes*float64(c.Likes) +
		s.w.Views*float64(c.Views) +
		s.w.Comments*float64(c.Comments), nil
}
