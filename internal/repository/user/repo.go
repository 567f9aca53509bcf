package user

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/domain"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
	"github.com/kailas-cloud/feedrank/internal/logger"
	"github.com/kailas-cloud/feedrank/internal/repository/codec"
)

// store is the consumer interface for users (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetExisting(ctx context.Context, key string, fields map[string]string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the user side of the embedding store.
type Repo struct {
	store  store
	prefix string
	dim    int
}

// New creates a user repository. keyPrefix defaults to domain.KeyPrefix.
func New(s store, keyPrefix string, dim int) *Repo {
	if keyPrefix == "" {
		keyPrefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: keyPrefix + "user:", dim: dim}
}

// Get returns a user by ID or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domuser.User, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domuser.User{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domuser.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(ctx, id, m, r.dim), nil
}

// Insert writes a full user record.
func (r *Repo) Insert(ctx context.Context, u *domuser.User) error {
	key := r.key(u.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(u)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// InsertMany writes several full records in one pipelined round-trip.
func (r *Repo) InsertMany(ctx context.Context, users []domuser.User) error {
	items := make([]db.HashSetItem, 0, len(users))
	for i := range users {
		items = append(items, db.HashSetItem{Key: r.key(users[i].ID()), Fields: buildHashFields(&users[i])})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d users: %w", len(items), err)
	}
	return nil
}

// UpdateVector writes only the vector field of an existing user.
// Returns domain.ErrNotFound when the record does not exist.
func (r *Repo) UpdateVector(ctx context.Context, id string, v []float32) error {
	key := r.key(id)
	written, err := r.store.HSetExisting(ctx, key, map[string]string{fieldVector: codec.EncodeVector(v)})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if !written {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// All lazily yields every user, skipping records deleted mid-iteration.
func (r *Repo) All(ctx context.Context) iter.Seq2[domuser.User, error] {
	return func(yield func(domuser.User, error) bool) {
		keys, err := r.store.Scan(ctx, r.prefix+"*")
		if err != nil {
			yield(domuser.User{}, fmt.Errorf("scan users: %w", err))
			return
		}
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				yield(domuser.User{}, err)
				return
			}
			m, err := r.store.HGetAll(ctx, key)
			if err != nil {
				if !yield(domuser.User{}, fmt.Errorf("hgetall %s: %w", key, err)) {
					return
				}
				continue
			}
			if len(m) == 0 {
				logger.FromContext(ctx).Debug("User vanished during scan", zap.String("key", key))
				continue
			}
			if !yield(parseHashFields(ctx, strings.TrimPrefix(key, r.prefix), m, r.dim), nil) {
				return
			}
		}
	}
}

// IDs lists all user IDs.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
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
