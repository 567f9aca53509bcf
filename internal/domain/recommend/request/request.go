package request

import (
	"fmt"

	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/vector"
)

// DefaultTopN is used when the caller asks for zero or fewer results.
const DefaultTopN = 5

// Request is a validated recommendation query.
type Request struct {
	vector []float32
	topN   int
	mode   mode.Mode
}

// New validates a query vector against the stored dimension.
// Defaults: topN=5, mode=similarity. A topN above the candidate count returns every candidate.
// Missing, wrong-dimension, non-finite or zero-norm vectors are ErrMalformedQuery.
func New(v []float32, dim, topN int, m mode.Mode) (Request, error) {
	if len(v) == 0 {
		return Request{}, fmt.Errorf("embedding is required: %w", domain.ErrMalformedQuery)
	}
	if err := vector.Validate(v, dim); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)
	}
	if vector.Norm(v) == 0 {
		return Request{}, fmt.Errorf("zero-norm query: %w", domain.ErrMalformedQuery)
	}
	if m == "" {
		m = mode.Similarity
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid ranking mode %q: %w", m, domain.ErrMalformedQuery)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	return Request{vector: vector.Clone(v), topN: topN, mode: m}, nil
}

// Vector returns the query vector.
func (r *Request) Vector() []float32 { return r.vector }

// TopN returns the number of results to return.
func (r *Request) TopN() int { return r.topN }

// Mode returns the ranking strategy.
func (r *Request) Mode() mode.Mode { return r.mode }
