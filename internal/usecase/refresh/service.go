package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/feedrank/internal/domain"
	domrefresh "github.com/kailas-cloud/feedrank/internal/domain/refresh"
	"github.com/kailas-cloud/feedrank/internal/metrics"
)

// DefaultWorkers bounds parallel item processing in RefreshAll.
const DefaultWorkers = 4

// Item outcome labels for feedrank_refresh_items_total.
const (
	statusOK            = "ok"
	statusNotFound      = "not_found"
	statusProviderError = "provider_error"
	statusError         = "error"
)

// Service recomputes stored vectors and engagement scores.
type Service struct {
	posts    PostRepository
	users    UserRepository
	embedder Embedder
	reducer  Reducer
	scorer   Scorer
	workers  int
	logger   *zap.Logger
}

// New creates a refresh service.
func New(
	posts PostRepository, users UserRepository,
	embedder Embedder, reducer Reducer, scorer Scorer,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		posts:    posts,
		users:    users,
		embedder: embedder,
		reducer:  reducer,
		scorer:   scorer,
		workers:  DefaultWorkers,
		logger:   logger,
	}
}

// WithWorkers sets the RefreshAll parallelism.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// RefreshPost re-embeds and re-scores one post. The vector and the score are
// written separately; a provider failure leaves both untouched.
func (s *Service) RefreshPost(ctx context.Context, id string) error {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	vec, err := s.vectorize(ctx, p.EmbeddingText())
	if err != nil {
		return fmt.Errorf("post %s: %w", id, err)
	}
	if err := s.posts.UpdateVector(ctx, id, vec); err != nil {
		return fmt.Errorf("update post vector: %w", err)
	}

	score, err := s.scorer.Score(p.Counts())
	if err != nil {
		return fmt.Errorf("score post %s: %w", id, err)
	}
	if err := s.posts.UpdateEngagement(ctx, id, score); err != nil {
		return fmt.Errorf("update post engagement: %w", err)
	}
	return nil
}

// RefreshUser re-embeds one user from authored captions, bio and interests.
// Authored post IDs that no longer resolve are skipped.
func (s *Service) RefreshUser(ctx context.Context, id string) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	captions := make([]string, 0, len(u.Posts()))
	for _, postID := range u.Posts() {
		p, err := s.posts.Get(ctx, postID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Skipping dangling post reference",
				zap.String("user_id", id), zap.String("post_id", postID))
			continue
		}
		if err != nil {
			return fmt.Errorf("get authored post %s: %w", postID, err)
		}
		captions = append(captions, p.Caption())
	}

	vec, err := s.vectorize(ctx, u.EmbeddingText(captions))
	if err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	if err := s.users.UpdateVector(ctx, id, vec); err != nil {
		return fmt.Errorf("update user vector: %w", err)
	}
	return nil
}

// RefreshAll refreshes every post, then every user. Item failures are logged
// and counted; only a listing failure or cancellation returns an error.
func (s *Service) RefreshAll(ctx context.Context) (domrefresh.Summary, error) {
	start := time.Now()

	postCounts, err := s.refreshKind(ctx, domrefresh.KindPost, s.posts.IDs, s.RefreshPost)
	if err != nil {
		return domrefresh.Summary{}, err
	}
	userCounts, err := s.refreshKind(ctx, domrefresh.KindUser, s.users.IDs, s.RefreshUser)
	if err != nil {
		return domrefresh.Summary{}, err
	}

	summary := domrefresh.NewSummary(postCounts, userCounts, time.Since(start))
	s.logger.Info("Refresh completed",
		zap.String("status", string(summary.Status)),
		zap.Int("posts_processed", postCounts.Processed),
		zap.Int("posts_failed", postCounts.Failed),
		zap.Int("users_processed", userCounts.Processed),
		zap.Int("users_failed", userCounts.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *Service) refreshKind(
	ctx context.Context, kind domrefresh.Kind,
	list func(context.Context) ([]string, error),
	refreshOne func(context.Context, string) error,
) (domrefresh.Counts, error) {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	ids, err := list(ctx)
	if err != nil {
		return domrefresh.Counts{}, fmt.Errorf("list %ss: %w", kind, err)
	}

	var processed, failed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := refreshOne(gctx, id)
			status := itemStatus(err)
			metrics.RefreshItemsTotal.WithLabelValues(string(kind), status).Inc()
			switch {
			case err == nil:
				processed.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			case status == statusNotFound:
				skipped.Add(1)
				s.logger.Debug("Record vanished before refresh",
					zap.String("kind", string(kind)), zap.String("id", id))
			default:
				failed.Add(1)
				s.logger.Warn("Refresh item failed",
					zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domrefresh.Counts{}, fmt.Errorf("refresh %ss: %w", kind, err)
	}
	if err := ctx.Err(); err != nil {
		return domrefresh.Counts{}, fmt.Errorf("refresh %ss: %w", kind, err)
	}

	return domrefresh.Counts{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}, nil
}

func (s *Service) vectorize(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	vec, truncated, err := s.reducer.ReduceOne(res.Embedding)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	if truncated {
		metrics.ReducerFallbackTotal.Inc()
		s.logger.Warn("Reducer fell back to truncation",
			zap.Int("raw_dimensions", len(res.Embedding)),
			zap.Int("target", len(vec)),
		)
	}
	if res.Placeholder {
		s.logger.Warn("Stored placeholder vector", zap.Int("dimensions", len(vec)))
	}
	return vec, nil
}

func itemStatus(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, domain.ErrNotFound):
		return statusNotFound
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return statusProviderError
	default:
		return statusError
	}
}
