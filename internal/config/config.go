// Package config loads, defaults, and validates the Litmesh
// configuration from YAML with LITMESH_* environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/search"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = ".litmesh.yaml"

// Config is the complete Litmesh configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Sources    []SourceConfig   `yaml:"sources" json:"sources"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Resilience ResilienceConfig `yaml:"resilience" json:"resilience"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
}

// SearchConfig groups the pipeline tuning: scoring thresholds and
// weights, fusion weights, cache behavior, per-tier expectations, and
// controller deadlines.
type SearchConfig struct {
	Scoring    search.ScoringConfig    `yaml:"scoring" json:"scoring"`
	Fusion     FusionConfig            `yaml:"fusion" json:"fusion"`
	Cache      search.CacheConfig      `yaml:"cache" json:"cache"`
	Strategy   search.StrategyConfig   `yaml:"strategy" json:"strategy"`
	Controller search.ControllerConfig `yaml:"controller" json:"controller"`
}

// FusionConfig tunes reciprocal rank fusion.
type FusionConfig struct {
	RRFConstant int     `yaml:"rrf_constant" json:"rrf_constant"`
	Vector      float64 `yaml:"vector_weight" json:"vector_weight"`
	Lexical     float64 `yaml:"lexical_weight" json:"lexical_weight"`
}

// SourceConfig declares one external source in the registry.
type SourceConfig struct {
	Name     string `yaml:"name" json:"name"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Priority int    `yaml:"priority" json:"priority"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "ollama" or "static".
	Provider   string        `yaml:"provider" json:"provider"`
	Model      string        `yaml:"model" json:"model"`
	OllamaHost string        `yaml:"ollama_host" json:"ollama_host"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	CacheSize  int           `yaml:"cache_size" json:"cache_size"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// IndexConfig locates the local hybrid index.
type IndexConfig struct {
	// Dir is the index directory; empty runs the index in memory.
	Dir string `yaml:"dir" json:"dir"`
}

// ResilienceConfig tunes retry and circuit breaking for source calls.
type ResilienceConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier      float64       `yaml:"multiplier" json:"multiplier"`
	BreakerFailures int           `yaml:"breaker_failures" json:"breaker_failures"`
	BreakerReset    time.Duration `yaml:"breaker_reset" json:"breaker_reset"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Scoring: search.DefaultScoringConfig(),
			Fusion: FusionConfig{
				RRFConstant: search.DefaultRRFConstant,
				Vector:      search.DefaultFusionWeights().Vector,
				Lexical:     search.DefaultFusionWeights().Lexical,
			},
			Cache:      search.DefaultCacheConfig(),
			Strategy:   search.DefaultStrategyConfig(),
			Controller: search.DefaultControllerConfig(),
		},
		Sources: []SourceConfig{
			{Name: "arxiv", Enabled: true, Priority: 1},
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "nomic-embed-text",
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
			Timeout:    60 * time.Second,
		},
		Index: IndexConfig{
			Dir: defaultIndexDir(),
		},
		Resilience: ResilienceConfig{
			MaxAttempts:     3,
			InitialDelay:    500 * time.Millisecond,
			MaxDelay:        8 * time.Second,
			Multiplier:      2.0,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
		},
		LogLevel: "info",
	}
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".litmesh", "index")
}

// Load reads the config file in dir, layers it over the defaults,
// applies LITMESH_* environment overrides, and validates. A missing
// file is not an error: defaults plus environment apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeConfigNotFound, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies LITMESH_* environment variable overrides.
// Environment beats file beats defaults.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LITMESH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LITMESH_INDEX_DIR"); v != "" {
		c.Index.Dir = v
	}
	if v := os.Getenv("LITMESH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("LITMESH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("LITMESH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("LITMESH_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.Fusion.RRFConstant = n
		}
	}
	if v := os.Getenv("LITMESH_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			c.Search.Fusion.Vector = f
			c.Search.Fusion.Lexical = 1 - f
		}
	}
	if v := os.Getenv("LITMESH_CACHE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			c.Search.Cache.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("LITMESH_TARGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.Strategy.Target = n
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	s := c.Search.Scoring
	if !(s.P1Threshold >= s.P2Threshold && s.P2Threshold >= s.P3Threshold) {
		return errors.New(errors.ErrCodeConfigInvalid,
			"scoring thresholds must be ordered p1 >= p2 >= p3", nil)
	}
	if c.Search.Fusion.Vector < 0 || c.Search.Fusion.Lexical < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "fusion weights must be non-negative", nil)
	}
	if c.Search.Fusion.Vector+c.Search.Fusion.Lexical == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "fusion weights must not both be zero", nil)
	}
	if t := c.Search.Cache.SimilarityThreshold; t <= 0 || t > 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"cache similarity threshold must be in (0, 1]", nil)
	}
	switch c.Embeddings.Provider {
	case "static", "ollama":
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			"embeddings provider must be static or ollama", nil).
			WithDetail("provider", c.Embeddings.Provider)
	}
	seen := make(map[string]bool)
	for _, src := range c.Sources {
		if src.Name == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "source name must not be empty", nil)
		}
		if seen[src.Name] {
			return errors.New(errors.ErrCodeConfigInvalid, "duplicate source name", nil).
				WithDetail("name", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}

// FusionWeights converts the fusion section into engine weights.
func (c *Config) FusionWeights() search.FusionWeights {
	return search.FusionWeights{
		Vector:  c.Search.Fusion.Vector,
		Lexical: c.Search.Fusion.Lexical,
	}
}

// RetryConfig converts the resilience section into the retry policy.
func (c *Config) RetryConfig() errors.RetryConfig {
	rc := errors.DefaultRetryConfig()
	if c.Resilience.MaxAttempts > 0 {
		rc.MaxAttempts = c.Resilience.MaxAttempts
	}
	if c.Resilience.InitialDelay > 0 {
		rc.InitialDelay = c.Resilience.InitialDelay
	}
	if c.Resilience.MaxDelay > 0 {
		rc.MaxDelay = c.Resilience.MaxDelay
	}
	if c.Resilience.Multiplier > 0 {
		rc.Multiplier = c.Resilience.Multiplier
	}
	return rc
}

// BreakerOptions converts the resilience section into breaker options.
func (c *Config) BreakerOptions() []errors.CircuitBreakerOption {
	var opts []errors.CircuitBreakerOption
	if c.Resilience.BreakerFailures > 0 {
		opts = append(opts, errors.WithMaxFailures(c.Resilience.BreakerFailures))
	}
	if c.Resilience.BreakerReset > 0 {
		opts = append(opts, errors.WithResetTimeout(c.Resilience.BreakerReset))
	}
	return opts
}

// SourceFor returns the declared source config by name.
func (c *Config) SourceFor(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Save writes the config as YAML to dir.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644)
}
