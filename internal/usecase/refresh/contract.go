package refresh

import (
	"context"

	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/engagement"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
)

// PostRepository is the post side of the embedding store.
type PostRepository interface {
	Get(ctx context.Context, id string) (dompost.Post, error)
	IDs(ctx context.Context) ([]string, error)
	UpdateVector(ctx context.Context, id string, v []float32) error
	UpdateEngagement(ctx context.Context, id string, score float64) error
}

// UserRepository is the user side of the embedding store.
type UserRepository interface {
	Get(ctx context.Context, id string) (domuser.User, error)
	IDs(ctx context.Context) ([]string, error)
	UpdateVector(ctx context.Context, id string, v []float32) error
}

// Embedder vectorizes record text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reducer projects a raw embedding to the stored dimension.
type Reducer interface {
	ReduceOne(v []float32) ([]float32, bool, error)
}

// Scorer computes the engagement score from interaction counts.
type Scorer interface {
	Score(c engagement.Counts) (float64, error)
}
