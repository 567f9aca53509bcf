// Package reduce projects provider embeddings down to the stored vector dimension.
//
// With at least Target samples the reducer runs PCA over the sample matrix and
// projects every sample onto the first Target principal directions. With fewer
// samples PCA cannot produce Target meaningful components, so the reducer keeps
// the first Target raw components of each sample verbatim and flags the result
// as truncated. The single-vector refresh path always takes the truncation branch.
package reduce

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// DefaultTarget is the stored vector dimension when none is configured.
const DefaultTarget = 3

// Reduction is the output of a reduction run.
type Reduction struct {
	Vectors [][]float32
	// Truncated reports that the truncation fallback was used instead of PCA.
	Truncated bool
}

// Reducer projects raw vectors to Target components.
type Reducer struct {
	target int
}

// New creates a reducer for the given target dimension.
func New(target int) (*Reducer, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target dimension must be positive, got %d: %w", target, domain.ErrInvalidInput)
	}
	return &Reducer{target: target}, nil
}

// Target returns the output dimension.
func (r *Reducer) Target() int { return r.target }

// ReduceOne reduces a single raw vector. This always uses the truncation fallback
// for Target > 1.
func (r *Reducer) ReduceOne(v []float32) ([]float32, bool, error) {
	res, err := r.Reduce([][]float32{v})
	if err != nil {
		return nil, false, err
	}
	return res.Vectors[0], res.Truncated, nil
}

// Reduce reduces a batch of raw vectors of equal length.
// Every output vector has exactly Target components.
func (r *Reducer) Reduce(samples [][]float32) (Reduction, error) {
	if len(samples) == 0 {
		return Reduction{}, fmt.Errorf("no samples: %w", domain.ErrInvalidVector)
	}
	n := len(samples[0])
	for i, s := range samples {
		if len(s) == 0 || len(s) != n {
			return Reduction{}, fmt.Errorf("sample %d has %d components, want %d: %w",
				i, len(s), n, domain.ErrInvalidVector)
		}
		for j, x := range s {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return Reduction{}, fmt.Errorf("sample %d component %d is not finite: %w",
					i, j, domain.ErrInvalidVector)
			}
		}
	}

	if len(samples) < r.target {
		return Reduction{Vectors: r.truncate(samples), Truncated: true}, nil
	}

	out, err := r.pca(samples)
	if err != nil {
		return Reduction{}, err
	}
	return Reduction{Vectors: out}, nil
}

// truncate keeps the first Target components of each sample, zero-padding short inputs.
func (r *Reducer) truncate(samples [][]float32) [][]float32 {
	out := make([][]float32, len(samples))
	for i, s := range samples {
		v := make([]float32, r.target)
		copy(v, s)
		out[i] = v
	}
	return out
}

// pca centers the sample matrix and projects it on the leading principal directions.
func (r *Reducer) pca(samples [][]float32) ([][]float32, error) {
	rows, cols := len(samples), len(samples[0])
	if rows == 1 {
		// A single centered sample is the origin.
		return [][]float32{make([]float32, r.target)}, nil
	}

	data := make([]float64, 0, rows*cols)
	for _, s := range samples {
		for _, x := range s {
			data = append(data, float64(x))
		}
	}
	x := mat.NewDense(rows, cols, data)

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("principal component analysis failed: %w", domain.ErrInvalidVector)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	// Center columns: sklearn-style transform is (X - mean) * V.
	centered := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := range rows {
			centered.Set(i, j, x.At(i, j)-mean)
		}
	}

	_, available := vecs.Dims()
	k := min(r.target, available)

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, cols, 0, k))

	out := make([][]float32, rows)
	for i := range rows {
		v := make([]float32, r.target)
		for j := range k {
			v[j] = float32(proj.At(i, j))
		}
		out[i] = v
	}
	return out, nil
}
