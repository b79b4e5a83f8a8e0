package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 60, cfg.Search.Fusion.RRFConstant)
	assert.InDelta(t, 0.7, cfg.Search.Fusion.Vector, 1e-9)
	assert.Equal(t, 70.0, cfg.Search.Scoring.P1Threshold)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := `
version: 1
log_level: debug
search:
  fusion:
    rrf_constant: 30
    vector_weight: 0.5
    lexical_weight: 0.5
sources:
  - name: arxiv
    enabled: true
    priority: 1
  - name: crossref
    enabled: false
    priority: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30, cfg.Search.Fusion.RRFConstant)
	require.Len(t, cfg.Sources, 2)

	crossref, ok := cfg.SourceFor("crossref")
	require.True(t, ok)
	assert.False(t, crossref.Enabled)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("log_level: warn\n"), 0o644))
	t.Setenv("LITMESH_LOG_LEVEL", "debug")
	t.Setenv("LITMESH_RRF_CONSTANT", "90")
	t.Setenv("LITMESH_VECTOR_WEIGHT", "0.6")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90, cfg.Search.Fusion.RRFConstant)
	assert.InDelta(t, 0.6, cfg.Search.Fusion.Vector, 1e-9)
	assert.InDelta(t, 0.4, cfg.Search.Fusion.Lexical, 1e-9)
}

func TestLoad_MalformedYAMLRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("search: ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unordered thresholds", func(c *Config) { c.Search.Scoring.P3Threshold = 99 }},
		{"zero fusion weights", func(c *Config) {
			c.Search.Fusion.Vector = 0
			c.Search.Fusion.Lexical = 0
		}},
		{"cache threshold above one", func(c *Config) { c.Search.Cache.SimilarityThreshold = 1.5 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
		{"duplicate source", func(c *Config) {
			c.Sources = append(c.Sources, SourceConfig{Name: "arxiv"})
		}},
		{"nameless source", func(c *Config) {
			c.Sources = append(c.Sources, SourceConfig{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.LogLevel = "debug"
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, cfg.Search.Fusion, loaded.Search.Fusion)
}

func TestResilienceConversions(t *testing.T) {
	cfg := Default()
	rc := cfg.RetryConfig()
	assert.Equal(t, 3, rc.MaxAttempts)

	opts := cfg.BreakerOptions()
	assert.Len(t, opts, 2)
}
