package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/source"
)

// VectorIndex ranks local articles by embedding similarity.
type VectorIndex interface {
	VectorSearch(ctx context.Context, query string, limit int) ([]article.Ranked, error)
}

// LexicalIndex ranks local articles by term relevance.
type LexicalIndex interface {
	LexicalSearch(ctx context.Context, query string, limit int) ([]article.Ranked, error)
}

// ControllerConfig tunes the escalation run.
type ControllerConfig struct {
	// TierDeadline is the soft per-tier deadline. Sources that miss it
	// contribute zero results; the tier still completes with whatever
	// responded.
	TierDeadline time.Duration `yaml:"tier_deadline" json:"tier_deadline"`

	// MaxConcurrent bounds simultaneous source calls across the fan-out.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// DefaultControllerConfig returns the standard controller tuning.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TierDeadline:  30 * time.Second,
		MaxConcurrent: 8,
	}
}

// Controller drives the search state machine:
//
//	P1_SEARCH → P1_EVALUATE → (DONE | AWAIT_CONTINUE_P2) →
//	P2_SEARCH → P2_EVALUATE → (DONE | AWAIT_CONTINUE_P3) →
//	P3_SEARCH → P3_EVALUATE → DONE
//
// Each tier fans out that tier's query variants against all enabled
// sources in parallel, deduplicates, scores, keeps the articles
// classified at this tier, and fuses in local vector/lexical rankings.
// Escalation to a lower-quality tier happens only while the target is
// unmet and the caller approves the checkpoint.
//
// An exhausted run that finds fewer than target articles is a valid
// Result, never an error; Run only errors on invalid input.
type Controller struct {
	registry *source.Registry
	invoker  *source.Invoker
	dedup    *Deduplicator
	scorer   *ScoringEngine
	fusion   *FusionEngine
	cfg      ControllerConfig
	log      *slog.Logger

	cache    *SemanticCache
	vector   VectorIndex
	lexical  LexicalIndex
	sink     ProgressSink
	approval ApprovalFunc
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithCache attaches a semantic cache.
func WithCache(c *SemanticCache) ControllerOption {
	return func(ctl *Controller) { ctl.cache = c }
}

// WithLocalIndexes attaches the local vector and lexical indexes whose
// rankings are fused into every tier.
func WithLocalIndexes(v VectorIndex, l LexicalIndex) ControllerOption {
	return func(ctl *Controller) {
		ctl.vector = v
		ctl.lexical = l
	}
}

// WithProgressSink attaches a progress callback.
func WithProgressSink(sink ProgressSink) ControllerOption {
	return func(ctl *Controller) { ctl.sink = sink }
}

// WithApproval attaches the escalation approval callback. Without one,
// escalation auto-continues.
func WithApproval(fn ApprovalFunc) ControllerOption {
	return func(ctl *Controller) { ctl.approval = fn }
}

// WithControllerConfig overrides the default tuning.
func WithControllerConfig(cfg ControllerConfig) ControllerOption {
	return func(ctl *Controller) {
		if cfg.TierDeadline > 0 {
			ctl.cfg.TierDeadline = cfg.TierDeadline
		}
		if cfg.MaxConcurrent > 0 {
			ctl.cfg.MaxConcurrent = cfg.MaxConcurrent
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) ControllerOption {
	return func(ctl *Controller) { ctl.log = log }
}

// NewController wires the pipeline together.
func NewController(registry *source.Registry, invoker *source.Invoker, scorer *ScoringEngine, fusion *FusionEngine, opts ...ControllerOption) *Controller {
	ctl := &Controller{
		registry: registry,
		invoker:  invoker,
		dedup:    NewDeduplicator(),
		scorer:   scorer,
		fusion:   fusion,
		cfg:      DefaultControllerConfig(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// run is the mutable state of one escalation.
type run struct {
	strategy    *Strategy
	report      *reporter
	accumulated []article.Scored
	seen        map[string]bool
	stats       Stats
	start       time.Time
}

// Run executes the escalation state machine for one strategy.
func (ctl *Controller) Run(ctx context.Context, strategy *Strategy) (*Result, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		strategy: strategy,
		seen:     make(map[string]bool),
		start:    time.Now(),
		stats: Stats{
			RunID:        uuid.NewString(),
			FoundPerTier: make(map[Tier]int),
			PerSource:    make(map[string]int),
		},
	}
	r.report = &reporter{sink: ctl.sink, log: ctl.log, runID: r.stats.RunID, start: r.start}

	log := ctl.log.With("run_id", r.stats.RunID, "query", strategy.Original)
	log.Info("search_run_started", "target", strategy.Target)

	// Cache first: a near-duplicate recent query answers immediately.
	var queryVec []float32
	if ctl.cache != nil {
		cached, vec, hit := ctl.cache.Lookup(ctx, strategy.Original, strategy.Category)
		if hit {
			log.Info("search_run_cache_hit", "articles", len(cached))
			r.stats.CacheHit = true
			r.accumulated = cached
			return ctl.finish(r), nil
		}
		queryVec = vec
	}

	for _, tier := range Tiers {
		variants := strategy.QueriesFor(tier)
		if len(variants) == 0 {
			// No variants at this tier (nothing recognized to expand);
			// escalation has nowhere to go.
			continue
		}

		if tier != TierP1 && len(r.accumulated) >= strategy.Target {
			break
		}
		if tier != TierP1 && !ctl.approveEscalation(r, tier) {
			log.Info("search_run_escalation_declined", "tier", tier.String())
			break
		}

		ctl.searchTier(ctx, r, tier, variants)
		r.report.emit(evaluateState(tier), tier, len(r.accumulated), strategy.Target, r.stats.PerSource)

		if len(r.accumulated) >= strategy.Target {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	result := ctl.finish(r)
	if ctl.cache != nil && !r.stats.CacheHit && len(result.Articles) > 0 {
		ctl.cache.Store(ctx, strategy.Original, strategy.Category, queryVec, result.Articles)
	}

	log.Info("search_run_done",
		"used", result.Stats.Used,
		"shortfall", result.Stats.Shortfall,
		"elapsed", result.Stats.Elapsed)
	return result, nil
}

// approveEscalation pauses at the AWAIT_CONTINUE checkpoint. Absent a
// callback the run continues automatically.
func (ctl *Controller) approveEscalation(r *run, tier Tier) bool {
	shortfall := r.strategy.Target - len(r.accumulated)
	r.report.emit(awaitState(tier), tier, len(r.accumulated), r.strategy.Target, r.stats.PerSource)

	if ctl.approval == nil {
		return true
	}

	best := make([]article.Scored, len(r.accumulated))
	copy(best, r.accumulated)
	return ctl.approval(Checkpoint{
		NextTier:  tier,
		Shortfall: shortfall,
		Best:      best,
	})
}

// searchTier fans out one tier: every variant against every enabled
// source in parallel, then local index fusion, dedup, scoring, and
// tier filtering. Source failures degrade to zero results.
func (ctl *Controller) searchTier(ctx context.Context, r *run, tier Tier, variants []string) {
	r.report.emit(searchState(tier), tier, len(r.accumulated), r.strategy.Target, r.stats.PerSource)

	tierCtx := ctx
	var cancel context.CancelFunc
	if ctl.cfg.TierDeadline > 0 {
		tierCtx, cancel = context.WithTimeout(ctx, ctl.cfg.TierDeadline)
		defer cancel()
	}

	limit := r.strategy.ExpectedFor(tier)
	adapters := ctl.registry.Enabled()

	var mu sync.Mutex
	var pool []article.Article
	failed := make(map[string]bool)

	g, gctx := errgroup.WithContext(tierCtx)
	g.SetLimit(ctl.cfg.MaxConcurrent)

	for _, adapter := range adapters {
		for _, query := range variants {
			g.Go(func() error {
				articles, err := ctl.invoker.Search(gctx, adapter, query, limit, r.strategy.Filters)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Degrade, never fail the tier.
					failed[adapter.Name()] = true
					return nil
				}
				pool = append(pool, articles...)
				r.stats.PerSource[adapter.Name()] += len(articles)
				return nil
			})
		}
	}
	_ = g.Wait() // workers never return errors

	pool = append(pool, ctl.localResults(tierCtx, r, variants[0], limit)...)

	for name := range failed {
		if r.stats.PerSource[name] == 0 && !containsString(r.stats.FailedSources, name) {
			r.stats.FailedSources = append(r.stats.FailedSources, name)
		}
	}
	sort.Strings(r.stats.FailedSources)

	ctl.accept(r, tier, pool)
}

// localResults fuses the local vector and lexical rankings for the
// tier's lead query. Best-effort: index errors degrade to nothing.
func (ctl *Controller) localResults(ctx context.Context, r *run, query string, limit int) []article.Article {
	if ctl.vector == nil && ctl.lexical == nil {
		return nil
	}

	var vec, lex []article.Ranked
	if ctl.vector != nil {
		v, err := ctl.vector.VectorSearch(ctx, query, limit)
		if err != nil {
			ctl.log.Warn("local_vector_search_failed", "error", err)
		} else {
			vec = v
		}
	}
	if ctl.lexical != nil {
		l, err := ctl.lexical.LexicalSearch(ctx, query, limit)
		if err != nil {
			ctl.log.Warn("local_lexical_search_failed", "error", err)
		} else {
			lex = l
		}
	}

	fused := ctl.fusion.Fuse(vec, lex)
	out := make([]article.Article, 0, len(fused))
	for _, f := range fused {
		out = append(out, f.Article)
	}
	if len(out) > 0 {
		r.stats.PerSource["local"] += len(out)
	}
	return out
}

// accept deduplicates the tier pool, scores it, and keeps only the
// articles classified at this tier that were not already accumulated.
func (ctl *Controller) accept(r *run, tier Tier, pool []article.Article) {
	deduped := ctl.dedup.Deduplicate(pool)
	scored := ctl.scorer.ScoreAll(deduped, r.strategy.Original)

	kept := 0
	for _, sa := range FilterTier(scored, tier) {
		key := sa.Key()
		if key == "" || r.seen[key] {
			continue
		}
		r.seen[key] = true
		r.accumulated = append(r.accumulated, sa)
		kept++
	}
	r.stats.FoundPerTier[tier] = kept
}

// finish sorts, truncates to target, and seals the statistics.
func (ctl *Controller) finish(r *run) *Result {
	sort.SliceStable(r.accumulated, func(i, j int) bool {
		a, b := r.accumulated[i], r.accumulated[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})

	articles := r.accumulated
	if len(articles) > r.strategy.Target {
		articles = articles[:r.strategy.Target]
	}

	r.stats.Used = len(articles)
	r.stats.Shortfall = r.strategy.Target - len(articles)
	if r.stats.Shortfall < 0 {
		r.stats.Shortfall = 0
	}
	r.stats.Elapsed = time.Since(r.start)

	r.report.emit(StateDone, 0, len(articles), r.strategy.Target, r.stats.PerSource)
	return &Result{Articles: articles, Stats: r.stats}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
