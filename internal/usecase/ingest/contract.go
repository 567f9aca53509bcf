package ingest

import (
	"context"

	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
)

// PostWriter stores full post records.
type PostWriter interface {
	InsertMany(ctx context.Context, posts []dompost.Post) error
}

// UserWriter stores full user records.
type UserWriter interface {
	InsertMany(ctx context.Context, users []domuser.User) error
}
