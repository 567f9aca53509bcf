// Package vector holds the numeric primitives shared by the reducer and the ranker.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// Dot returns the dot product of a and b computed in float64.
// Both vectors must have the same length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// Cosine returns the cosine similarity of a and b.
// Returns ErrVectorDimMismatch for different lengths and ErrDegenerateVector
// when either vector has zero norm; it never divides by zero.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine %d vs %d: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, domain.ErrDegenerateVector
	}
	sim := Dot(a, b) / (na * nb)
	// Rounding can push identical vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// Validate checks that v has exactly dim finite components.
func Validate(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", domain.ErrInvalidVector)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("expected %d components, got %d: %w", dim, len(v), domain.ErrVectorDimMismatch)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("component %d is not finite: %w", i, domain.ErrInvalidVector)
		}
	}
	return nil
}

// Clone returns a copy of v.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
