package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/config"
	"github.com/kailas-cloud/feedrank/internal/db"
	"github.com/kailas-cloud/feedrank/internal/db/memory"
	dbRedis "github.com/kailas-cloud/feedrank/internal/db/redis"
	"github.com/kailas-cloud/feedrank/internal/db/sqlite"
	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/engagement"
	"github.com/kailas-cloud/feedrank/internal/domain/reduce"
	logpkg "github.com/kailas-cloud/feedrank/internal/logger"
	"github.com/kailas-cloud/feedrank/internal/metrics"
	"github.com/kailas-cloud/feedrank/internal/repository/embcache"
	postrepo "github.com/kailas-cloud/feedrank/internal/repository/post"
	userrepo "github.com/kailas-cloud/feedrank/internal/repository/user"
	openaiEmb "github.com/kailas-cloud/feedrank/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/feedrank/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/feedrank/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/feedrank/internal/usecase/ingest"
	recommenduc "github.com/kailas-cloud/feedrank/internal/usecase/recommend"
	refreshuc "github.com/kailas-cloud/feedrank/internal/usecase/refresh"
	"github.com/kailas-cloud/feedrank/internal/version"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg    config.Config
	env    string
	logger *zap.Logger
	store  db.Store

	recommend *recommenduc.Service
	refresh   *refreshuc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
}

// bootstrap is the composition root: config, logger, store, embedders, services.
func bootstrap(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting feedrank",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("create database store: %w", err)
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.String("fallback", cfg.Embedding.Fallback),
	)

	dim := cfg.Reducer.TargetDim
	reducer, err := reduce.New(dim)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create reducer: %w", err)
	}
	w := cfg.Engagement.Weights
	scorer, err := engagement.NewScorer(engagement.Weights{Likes: w.Likes, Views: w.Views, Comments: w.Comments})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create scorer: %w", err)
	}

	posts := postrepo.New(store, cfg.Storage.KeyPrefix, dim)
	users := userrepo.New(store, cfg.Storage.KeyPrefix, dim)

	return &app{
		cfg:    cfg,
		env:    env,
		logger: logger,
		store:  store,
		recommend: recommenduc.New(posts, users, queryEmbedder, reducer, dim, logger).
			WithBlendAlpha(*cfg.Recommend.BlendAlpha),
		refresh: refreshuc.New(posts, users, docEmbedder, reducer, scorer, logger).
			WithWorkers(cfg.Refresh.Workers),
		ingest: ingestuc.New(posts, users, logger),
		health: healthuc.New(store, newEmbeddingHealthChecker(docEmbedder)),
	}, nil
}

// Close releases the store and flushes the logger.
func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			Standalone: cfg.Standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Fallback -> Instruction.
// Without a provider URL only the placeholder embedder is used. Placeholder
// vectors already have the stored dimension, so reduction keeps them intact.
func buildEmbedder(cfg config.Config, instruction string, store db.Store, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding
	placeholder := embeddinguc.NewHashingEmbedder(cfg.Reducer.TargetDim)
	if ec.BaseURL == "" {
		logger.Warn("No embedding provider configured, using placeholder vectors")
		return placeholder
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if ec.CacheTTLHours > 0 {
		embedder = embcache.New(base, store, embcache.Config{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Model:     ec.Model,
			TTL:       time.Duration(ec.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, ec.Provider, ec.Model, time.Duration(ec.TimeoutSec)*time.Second, logger,
	)

	if ec.Fallback == config.FallbackPlaceholder {
		embedder = embeddinguc.NewFallbackEmbedder(embedder, placeholder, metrics.EmbeddingFallbackTotal, logger)
	}

	// Instruction prefix (outermost, cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
