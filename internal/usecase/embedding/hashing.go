package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// DefaultHashingDimensions is the placeholder vector length when none is configured.
const DefaultHashingDimensions = 384

// HashingEmbedder derives a deterministic vector from the text alone by feature
// hashing its lowercase word tokens. It needs no network and never fails for
// non-empty input, which makes it usable as a degraded-mode placeholder.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder producing dim-length vectors.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultHashingDimensions
	}
	return &HashingEmbedder{dim: dim}
}

// Embed returns an L2-normalized hashed bag-of-words vector. Text without any
// word characters yields an error, since its vector would have zero norm.
func (h *HashingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float64, h.dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#'
	})
	for _, tok := range tokens {
		vec[xxhash.Sum64String(tok)%uint64(h.dim)]++
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed %q: %w", text, domain.ErrDegenerateVector)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dim)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return domain.EmbeddingResult{Embedding: out, Placeholder: true}, nil
}
