package cmd

import (
	"log/slog"

	"github.com/litmesh/litmesh/internal/config"
	"github.com/litmesh/litmesh/internal/embed"
	"github.com/litmesh/litmesh/internal/index"
	"github.com/litmesh/litmesh/internal/search"
	"github.com/litmesh/litmesh/internal/source"
	"github.com/litmesh/litmesh/internal/source/arxiv"
)

// pipeline is the assembled engine shared by the search and index
// commands.
type pipeline struct {
	cfg      *config.Config
	embedder embed.Embedder
	local    *index.HybridIndex
	registry *source.Registry
	invoker  *source.Invoker
	expander *search.QueryExpander
	fusion   *search.FusionEngine
	scorer   *search.ScoringEngine
	cache    *search.SemanticCache
}

// buildPipeline wires the engine from configuration. withLocal controls
// whether the on-disk hybrid index is opened (and locked).
func buildPipeline(cfg *config.Config, withLocal bool) (*pipeline, error) {
	p := &pipeline{
		cfg:      cfg,
		expander: search.NewQueryExpander(),
		fusion:   search.NewFusionEngine(cfg.Search.Fusion.RRFConstant, cfg.FusionWeights()),
		scorer:   search.NewScoringEngine(cfg.Search.Scoring),
	}

	p.embedder = buildEmbedder(cfg)
	p.cache = search.NewSemanticCache(p.embedder, cfg.Search.Cache, slog.Default())

	if withLocal {
		local, err := index.Open(cfg.Index.Dir, p.embedder, p.fusion, slog.Default())
		if err != nil {
			p.close()
			return nil, err
		}
		p.local = local
	}

	p.invoker = source.NewInvoker(
		source.WithRetryConfig(cfg.RetryConfig()),
		source.WithBreakerOptions(cfg.BreakerOptions()...),
	)
	p.registry = buildRegistry(cfg)
	return p, nil
}

// buildEmbedder selects the provider and wraps it in the LRU cache.
func buildEmbedder(cfg *config.Config) embed.Embedder {
	var inner embed.Embedder
	switch cfg.Embeddings.Provider {
	case "ollama":
		inner = embed.NewOllamaEmbedder(embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
			Timeout:    cfg.Embeddings.Timeout,
		})
	default:
		inner = embed.NewStaticEmbedder()
	}
	return embed.NewCachedEmbedder(inner, cfg.Embeddings.CacheSize)
}

// buildRegistry declares the configured external adapters. The local
// hybrid index is not registered here: the controller searches it once
// per tier through WithLocalIndexes.
func buildRegistry(cfg *config.Config) *source.Registry {
	var entries []source.Entry
	for _, sc := range cfg.Sources {
		adapter := buildAdapter(sc)
		if adapter == nil {
			slog.Warn("unknown_source_skipped", "name", sc.Name)
			continue
		}
		entries = append(entries, source.Entry{
			Adapter:  adapter,
			Priority: sc.Priority,
			Enabled:  sc.Enabled,
		})
	}
	return source.NewRegistry(entries...)
}

func buildAdapter(sc config.SourceConfig) source.Adapter {
	switch sc.Name {
	case "arxiv":
		var opts []arxiv.Option
		if sc.BaseURL != "" {
			opts = append(opts, arxiv.WithBaseURL(sc.BaseURL))
		}
		return arxiv.New(opts...)
	default:
		return nil
	}
}

// controller builds the escalation controller over the pipeline.
func (p *pipeline) controller(opts ...search.ControllerOption) *search.Controller {
	base := []search.ControllerOption{
		search.WithCache(p.cache),
		search.WithControllerConfig(p.cfg.Search.Controller),
	}
	if p.local != nil {
		base = append(base, search.WithLocalIndexes(p.local, p.local))
	}
	return search.NewController(p.registry, p.invoker, p.scorer, p.fusion, append(base, opts...)...)
}

func (p *pipeline) close() {
	if p.cache != nil {
		p.cache.Close()
	}
	if p.local != nil {
		_ = p.local.Close()
	}
	if p.embedder != nil {
		_ = p.embedder.Close()
	}
}
