package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	"github.com/kailas-cloud/feedrank/internal/metrics"
)

// Service ranks stored post vectors against a query vector.
type Service struct {
	posts   PostSource
	users   UserReader
	embed   Embedder
	reducer Reducer
	dim     int
	alpha   float64
	logger  *zap.Logger
}

// New creates a recommendation service for vectors of dimension dim.
func New(
	posts PostSource, users UserReader, embed Embedder, reducer Reducer,
	dim int, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		posts:   posts,
		users:   users,
		embed:   embed,
		reducer: reducer,
		dim:     dim,
		alpha:   DefaultBlendAlpha,
		logger:  logger,
	}
}

// WithBlendAlpha sets the similarity weight of blend mode. Values outside [0,1] are ignored.
func (s *Service) WithBlendAlpha(alpha float64) *Service {
	if alpha >= 0 && alpha <= 1 {
		s.alpha = alpha
	}
	return s
}

// Dimensions returns the stored vector dimension queries must match.
func (s *Service) Dimensions() int { return s.dim }

// Recommend ranks every post with a usable vector against the request.
func (s *Service) Recommend(ctx context.Context, req *request.Request) ([]result.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	}()

	r := newRanking(req.Vector())
	for p, err := range s.posts.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		r.add(&p)
	}

	for reason, n := range r.excluded {
		metrics.RankerExcludedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if len(r.excluded) > 0 {
		s.logger.Debug("Candidates excluded from ranking", zap.Any("excluded", r.excluded))
	}

	return r.top(req.Mode(), s.alpha, req.TopN()), nil
}

// RecommendForUser uses the user's stored vector as the query.
func (s *Service) RecommendForUser(
	ctx context.Context, userID string, topN int, m mode.Mode,
) ([]result.Result, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.HasVector() {
		return nil, fmt.Errorf("user vector %s: %w", userID, domain.ErrNotFound)
	}
	req, err := request.New(u.Vector(), s.dim, topN, m)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return s.Recommend(ctx, &req)
}

// RecommendText embeds and reduces free text, then ranks against it.
func (s *Service) RecommendText(
	ctx context.Context, text string, topN int, m mode.Mode,
) ([]result.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrMalformedQuery)
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	vec, truncated, err := s.reducer.ReduceOne(res.Embedding)
	if err != nil {
		return nil, fmt.Errorf("reduce query: %w", err)
	}
	if truncated {
		metrics.ReducerFallbackTotal.Inc()
	}
	req, err := request.New(vec, s.dim, topN, m)
	if err != nil {
		return nil, err
	}
	return s.Recommend(ctx, &req)
}
