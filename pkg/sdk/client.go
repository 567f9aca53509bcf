package feedrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/db/memory"
	dbRedis "github.com/kailas-cloud/feedrank/internal/db/redis"
	"github.com/kailas-cloud/feedrank/internal/db/sqlite"
	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/engagement"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	"github.com/kailas-cloud/feedrank/internal/domain/reduce"
	domrefresh "github.com/kailas-cloud/feedrank/internal/domain/refresh"
	"github.com/kailas-cloud/feedrank/internal/metrics"
	postrepo "github.com/kailas-cloud/feedrank/internal/repository/post"
	userrepo "github.com/kailas-cloud/feedrank/internal/repository/user"
	embeddinguc "github.com/kailas-cloud/feedrank/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/feedrank/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/feedrank/internal/usecase/ingest"
	recommenduc "github.com/kailas-cloud/feedrank/internal/usecase/recommend"
	refreshuc "github.com/kailas-cloud/feedrank/internal/usecase/refresh"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDimensions       = 3
)

// Internal interfaces, replaced by mocks in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, req *request.Request) ([]result.Result, error)
	RecommendForUser(ctx context.Context, userID string, topN int, m mode.Mode) ([]result.Result, error)
	RecommendText(ctx context.Context, text string, topN int, m mode.Mode) ([]result.Result, error)
	Dimensions() int
}

type refreshUseCase interface {
	RefreshPost(ctx context.Context, id string) error
	RefreshUser(ctx context.Context, id string) error
	RefreshAll(ctx context.Context) (domrefresh.Summary, error)
}

type importUseCase interface {
	ImportPosts(ctx context.Context, r io.Reader) (int, error)
	ImportUsers(ctx context.Context, r io.Reader) (int, error)
}

// Client is the feedrank SDK entry point.
type Client struct {
	store        db.Store
	recommendSvc recommendUseCase
	refreshSvc   refreshUseCase
	importSvc    importUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a feedrank Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions: defaultDimensions,
		keyPrefix:  domain.KeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("feedrank: storage required (use WithValkey, WithRedis, WithSQLite or WithMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("feedrank: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("feedrank: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("feedrank: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.NewStore(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("feedrank: create sqlite store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("feedrank: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	reducer, err := reduce.New(cfg.dimensions)
	if err != nil {
		return nil, fmt.Errorf("feedrank: %w", err)
	}

	weights := engagement.DefaultWeights()
	if cfg.weights != nil {
		weights = engagement.Weights{
			Likes:    cfg.weights.Likes,
			Views:    cfg.weights.Views,
			Comments: cfg.weights.Comments,
		}
	}
	scorer, err := engagement.NewScorer(weights)
	if err != nil {
		return nil, fmt.Errorf("feedrank: %w", err)
	}

	posts := postrepo.New(store, cfg.keyPrefix, cfg.dimensions)
	users := userrepo.New(store, cfg.keyPrefix, cfg.dimensions)

	domEmb, checker := buildEmbedder(cfg)
	logger := zap.NewNop()

	refreshSvc := refreshuc.New(posts, users, domEmb, reducer, scorer, logger)
	if cfg.workers > 0 {
		refreshSvc = refreshSvc.WithWorkers(cfg.workers)
	}
	recommendSvc := recommenduc.New(posts, users, domEmb, reducer, cfg.dimensions, logger)
	if cfg.blendAlpha != nil {
		recommendSvc = recommendSvc.WithBlendAlpha(*cfg.blendAlpha)
	}

	return &Client{
		store:        store,
		recommendSvc: recommendSvc,
		refreshSvc:   refreshSvc,
		importSvc:    ingestuc.New(posts, users, logger),
		healthSvc:    healthuc.New(store, checker),
		obs:          obs,
	}, nil
}

// buildEmbedder picks the embedding chain. checker is nil when there is
// nothing worth probing.
func buildEmbedder(cfg *clientConfig) (domain.Embedder, healthuc.EmbeddingChecker) {
	switch {
	case cfg.embedder != nil && cfg.placeholder:
		fb := embeddinguc.NewFallbackEmbedder(
			&embedderAdapter{inner: cfg.embedder},
			embeddinguc.NewHashingEmbedder(cfg.dimensions),
			metrics.EmbeddingFallbackTotal, zap.NewNop(),
		)
		return fb, fb
	case cfg.embedder != nil:
		a := &embedderAdapter{inner: cfg.embedder}
		return a, a
	case cfg.placeholder:
		return embeddinguc.NewHashingEmbedder(cfg.dimensions), nil
	default:
		return noopEmbedder{}, nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Recommend ranks stored posts against an already reduced query vector.
// topN <= 0 means 5; mode "" means similarity.
func (c *Client) Recommend(ctx context.Context, vector []float32, topN int, m Mode) (_ []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	req, err := request.New(vector, c.recommendSvc.Dimensions(), topN, mode.Mode(m))
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel already wrapped
	}
	res, err := c.recommendSvc.Recommend(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return toRecommendations(res), nil
}

// RecommendForUser ranks posts against the stored vector of a user.
func (c *Client) RecommendForUser(ctx context.Context, userID string, topN int, m Mode) (_ []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend.user", start, err) }()

	res, err := c.recommendSvc.RecommendForUser(ctx, userID, topN, mode.Mode(m))
	if err != nil {
		return nil, fmt.Errorf("recommend for user: %w", err)
	}
	return toRecommendations(res), nil
}

// RecommendText embeds free text and ranks posts against it.
func (c *Client) RecommendText(ctx context.Context, text string, topN int, m Mode) (_ []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend.text", start, err) }()

	res, err := c.recommendSvc.RecommendText(ctx, text, topN, mode.Mode(m))
	if err != nil {
		return nil, fmt.Errorf("recommend text: %w", err)
	}
	return toRecommendations(res), nil
}

// RefreshPost recomputes the vector and engagement score of one post.
func (c *Client) RefreshPost(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("refresh.post", start, err) }()

	if err = c.refreshSvc.RefreshPost(ctx, id); err != nil {
		return fmt.Errorf("refresh post: %w", err)
	}
	return nil
}

// RefreshUser recomputes the vector of one user.
func (c *Client) RefreshUser(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("refresh.user", start, err) }()

	if err = c.refreshSvc.RefreshUser(ctx, id); err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	return nil
}

// RefreshAll refreshes every post, then every user.
// Per-item failures are counted in the summary, not returned.
func (c *Client) RefreshAll(ctx context.Context) (_ RefreshSummary, err error) {
	start := time.Now()
	defer func() { c.obs.observe("refresh.all", start, err) }()

	s, err := c.refreshSvc.RefreshAll(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("refresh all: %w", err)
	}
	return RefreshSummary{
		Status:   string(s.Status),
		Posts:    RefreshCounts(s.Posts),
		Users:    RefreshCounts(s.Users),
		Duration: s.Duration,
	}, nil
}

// ImportPosts loads newline-delimited JSON posts. Returns the number written.
func (c *Client) ImportPosts(ctx context.Context, r io.Reader) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import.posts", start, err) }()

	n, err := c.importSvc.ImportPosts(ctx, r)
	if err != nil {
		return n, fmt.Errorf("import posts: %w", err)
	}
	return n, nil
}

// ImportUsers loads newline-delimited JSON users. Returns the number written.
func (c *Client) ImportUsers(ctx context.Context, r io.Reader) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import.users", start, err) }()

	n, err := c.importSvc.ImportUsers(ctx, r)
	if err != nil {
		return n, fmt.Errorf("import users: %w", err)
	}
	return n, nil
}

func toRecommendations(res []result.Result) []Recommendation {
	out := make([]Recommendation, len(res))
	for i := range res {
		out[i] = Recommendation{
			PostID:     res[i].ID(),
			Score:      res[i].Score(),
			Similarity: res[i].Similarity(),
			Engagement: res[i].Engagement(),
		}
	}
	return out
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
// Every failure is reported as a provider error.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck checks the wrapped embedder when it exposes a health check.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"feedrank: embedder not configured (use WithEmbedder or WithPlaceholderEmbeddings): %w",
		domain.ErrEmbeddingProviderError,
	)
}
