package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Embedding fallback modes.
const (
	FallbackNone        = "none"
	FallbackPlaceholder = "placeholder"
)

// Config holds the feedrank configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Reducer    ReducerConfig    `yaml:"reducer"`
	Engagement EngagementConfig `yaml:"engagement"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, sqlite, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Standalone       bool     `yaml:"standalone"` // disable cluster discovery
	Path             string   `yaml:"path"`       // sqlite file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 disables the cache
	Fallback            string `yaml:"fallback"`        // none | placeholder
}

// ReducerConfig holds dimensionality reduction settings.
type ReducerConfig struct {
	TargetDim int `yaml:"target_dim"`
}

// EngagementConfig holds engagement scoring settings.
type EngagementConfig struct {
	Weights *WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds per-interaction weights.
type WeightsConfig struct {
	Likes    float64 `yaml:"likes"`
	Views    float64 `yaml:"views"`
	Comments float64 `yaml:"comments"`
}

// RecommendConfig holds ranking settings.
type RecommendConfig struct {
	BlendAlpha *float64 `yaml:"blend_alpha"`
}

// RefreshConfig holds update orchestrator settings.
type RefreshConfig struct {
	Workers int `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Fallback == "" {
		c.Embedding.Fallback = FallbackNone
	}
	if c.Reducer.TargetDim == 0 {
		c.Reducer.TargetDim = 3
	}
	if c.Engagement.Weights == nil {
		c.Engagement.Weights = &WeightsConfig{Likes: 0.4, Views: 0.4, Comments: 0.2}
	}
	if c.Recommend.BlendAlpha == nil {
		alpha := 0.7
		c.Recommend.BlendAlpha = &alpha
	}
	if c.Refresh.Workers <= 0 {
		c.Refresh.Workers = 4
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "feedrank:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be valkey, redis, sqlite or memory, got %q", c.Database.Driver)
	}
	switch c.Embedding.Fallback {
	case FallbackNone, FallbackPlaceholder:
	default:
		return fmt.Errorf("embedding.fallback must be %q or %q, got %q",
			FallbackNone, FallbackPlaceholder, c.Embedding.Fallback)
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Fallback != FallbackPlaceholder {
		return errors.New("embedding.base_url is required unless embedding.fallback is placeholder")
	}
	if c.Reducer.TargetDim <= 0 {
		return fmt.Errorf("reducer.target_dim must be positive, got %d", c.Reducer.TargetDim)
	}
	if w := c.Engagement.Weights; w != nil && (w.Likes < 0 || w.Views < 0 || w.Comments < 0) {
		return fmt.Errorf("engagement.weights must be non-negative, got %+v", *w)
	}
	if a := c.Recommend.BlendAlpha; a != nil && (*a < 0 || *a > 1) {
		return fmt.Errorf("recommend.blend_alpha must be within [0, 1], got %v", *a)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
