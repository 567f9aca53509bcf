package recommend

import (
	"context"
	"iter"

	"github.com/kailas-cloud/feedrank/internal/domain"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
)

// PostSource lists candidate posts.
type PostSource interface {
	All(ctx context.Context) iter.Seq2[dompost.Post, error]
}

// UserReader loads a user for user-based recommendations.
type UserReader interface {
	Get(ctx context.Context, id string) (domuser.User, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reducer projects a raw query embedding to the stored dimension.
type Reducer interface {
	ReduceOne(v []float32) ([]float32, bool, error)
}
