package post

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/domain"
	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	"github.com/kailas-cloud/feedrank/internal/logger"
	"github.com/kailas-cloud/feedrank/internal/repository/codec"
)

// store is the consumer interface for posts (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetExisting(ctx context.Context, key string, fields map[string]string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Update carries the fields a partial Put may write. Nil fields are left untouched.
type Update struct {
	Vector []float32
	Score  *float64
}

// Repo implements the post side of the embedding store.
type Repo struct {
	store  store
	prefix string
	dim    int
}

// New creates a post repository. keyPrefix defaults to domain.KeyPrefix;
// dim is the stored vector dimension used to validate vectors on read.
func New(s store, keyPrefix string, dim int) *Repo {
	if keyPrefix == "" {
		keyPrefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: keyPrefix + "post:", dim: dim}
}

// Get returns a post by ID or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (dompost.Post, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return dompost.Post{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return dompost.Post{}, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(ctx, id, m, r.dim), nil
}

// Insert writes a full post record, overwriting the fields it carries.
func (r *Repo) Insert(ctx context.Context, p *dompost.Post) error {
	fields, err := buildHashFields(p)
	if err != nil {
		return fmt.Errorf("encode post %s: %w", p.ID(), err)
	}
	key := r.key(p.ID())
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// InsertMany writes several full records in one pipelined round-trip.
func (r *Repo) InsertMany(ctx context.Context, posts []dompost.Post) error {
	items := make([]db.HashSetItem, 0, len(posts))
	for i := range posts {
		fields, err := buildHashFields(&posts[i])
		if err != nil {
			return fmt.Errorf("encode post %s: %w", posts[i].ID(), err)
		}
		items = append(items, db.HashSetItem{Key: r.key(posts[i].ID()), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d posts: %w", len(items), err)
	}
	return nil
}

// Put merges only the non-nil fields of u into an existing record.
// Returns domain.ErrNotFound when the record does not exist.
func (r *Repo) Put(ctx context.Context, id string, u Update) error {
	fields := make(map[string]string, 2)
	if u.Vector != nil {
		fields[fieldVector] = codec.EncodeVector(u.Vector)
	}
	if u.Score != nil {
		fields[fieldScore] = codec.EncodeFloat(*u.Score)
	}
	if len(fields) == 0 {
		return nil
	}

	key := r.key(id)
	written, err := r.store.HSetExisting(ctx, key, fields)
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if !written {
		return fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateVector writes only the vector field.
func (r *Repo) UpdateVector(ctx context.Context, id string, v []float32) error {
	return r.Put(ctx, id, Update{Vector: v})
}

// UpdateEngagement writes only the engagement score field.
func (r *Repo) UpdateEngagement(ctx context.Context, id string, score float64) error {
	return r.Put(ctx, id, Update{Score: &score})
}

// All lazily yields every post. Keys are listed on each call; a record deleted
// between listing and loading is skipped.
func (r *Repo) All(ctx context.Context) iter.Seq2[dompost.Post, error] {
	return func(yield func(dompost.Post, error) bool) {
		keys, err := r.store.Scan(ctx, r.prefix+"*")
		if err != nil {
			yield(dompost.Post{}, fmt.Errorf("scan posts: %w", err))
			return
		}
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				yield(dompost.Post{}, err)
				return
			}
			m, err := r.store.HGetAll(ctx, key)
			if err != nil {
				if !yield(dompost.Post{}, fmt.Errorf("hgetall %s: %w", key, err)) {
					return
				}
				continue
			}
			if len(m) == 0 {
				logger.FromContext(ctx).Debug("Post vanished during scan", zap.String("key", key))
				continue
			}
			if !yield(parseHashFields(ctx, strings.TrimPrefix(key, r.prefix), m, r.dim), nil) {
				return
			}
		}
	}
}

// IDs lists all post IDs.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, r.prefix)
	}
	return ids, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
