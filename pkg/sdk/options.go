package feedrank

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "valkey", "redis", "sqlite" or "memory"
	addrs      []string
	password   string
	standalone bool
	sqlitePath string
	keyPrefix  string

	embedder    Embedder
	placeholder bool

	dimensions int
	weights    *Weights
	blendAlpha *float64
	workers    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// Weights are the engagement weights for likes, views and comments.
type Weights struct {
	Likes    float64
	Views    float64
	Comments float64
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithStandalone disables cluster topology discovery.
// Use for standalone Valkey/Redis instances.
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithSQLite stores posts and users in a local SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithMemory keeps all data in process memory. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithKeyPrefix overrides the "feedrank:" key prefix.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider.
// Required for refresh and text queries unless WithPlaceholderEmbeddings is set.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithPlaceholderEmbeddings enables deterministic hashed embeddings.
// Without an embedder they are used for every call; with one they replace
// failed provider calls.
func WithPlaceholderEmbeddings() Option {
	return optionFunc(func(c *clientConfig) {
		c.placeholder = true
	})
}

// WithDimensions sets the stored (reduced) vector dimension. Default: 3.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithWeights sets the engagement weights. Default: 0.4/0.4/0.2.
func WithWeights(w Weights) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = &w
	})
}

// WithBlendAlpha sets the similarity share of blend ranking. Default: 0.7.
func WithBlendAlpha(alpha float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.blendAlpha = &alpha
	})
}

// WithWorkers bounds refresh parallelism. Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
