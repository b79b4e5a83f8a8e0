package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/embed"
)

// CacheConfig tunes the semantic cache.
type CacheConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a hit.
	// Stricter trades hit rate against staleness risk.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// TTL bounds entry lifetime.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// SweepInterval is the cadence of the eager expiry sweep; 0 disables
	// the background sweeper (expiry still happens lazily on lookup).
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`

	// MaxEntries caps the cache; the oldest entry is evicted at the cap.
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
}

// DefaultCacheConfig returns the standard cache tuning.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SimilarityThreshold: 0.92,
		TTL:                 time.Hour,
		SweepInterval:       5 * time.Minute,
		MaxEntries:          256,
	}
}

// cacheEntry is one stored search outcome.
type cacheEntry struct {
	query     string
	category  string
	embedding []float32
	articles  []article.Scored
	createdAt time.Time
	expiresAt time.Time
}

// SemanticCache short-circuits repeat or near-duplicate queries by
// comparing query embeddings rather than exact strings, so "federated
// learning privacy" can answer "privacy in federated learning".
//
// The cache is best-effort end to end: an embedder failure, an empty
// query, anything at all degrades to a miss and never fails the
// surrounding search. Reads snapshot under RLock and filter outside it;
// strict linearizability with concurrent writes is not needed.
type SemanticCache struct {
	embedder embed.Embedder
	cfg      CacheConfig
	log      *slog.Logger

	mu      sync.RWMutex
	entries []*cacheEntry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSemanticCache creates a cache and, when SweepInterval is set,
// starts the background expiry sweeper. Call Close to stop it.
func NewSemanticCache(embedder embed.Embedder, cfg CacheConfig, log *slog.Logger) *SemanticCache {
	def := DefaultCacheConfig()
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if log == nil {
		log = slog.Default()
	}

	c := &SemanticCache{
		embedder: embedder,
		cfg:      cfg,
		log:      log,
		stop:     make(chan struct{}),
	}
	if cfg.SweepInterval > 0 {
		go c.sweepLoop(cfg.SweepInterval)
	}
	return c
}

// Lookup returns the cached article list for the nearest non-expired
// same-category entry, if its similarity clears the threshold. The
// query embedding is returned alongside so callers can reuse it for the
// eventual Store instead of embedding twice.
func (c *SemanticCache) Lookup(ctx context.Context, query, category string) ([]article.Scored, []float32, bool) {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.log.Debug("cache lookup degraded to miss", "error", err)
		return nil, nil, false
	}

	// Expired entries are dropped on every lookup, not only on misses,
	// so a hit-heavy workload cannot pin dead entries until the sweeper.
	now := time.Now()
	c.purgeExpired(now)

	c.mu.RLock()
	snapshot := make([]*cacheEntry, len(c.entries))
	copy(snapshot, c.entries)
	c.mu.RUnlock()

	var best *cacheEntry
	bestSim := 0.0
	for _, e := range snapshot {
		if e.category != category || now.After(e.expiresAt) {
			continue
		}
		if sim := embed.Cosine(vec, e.embedding); sim > bestSim {
			best, bestSim = e, sim
		}
	}

	if best == nil || bestSim < c.cfg.SimilarityThreshold {
		return nil, vec, false
	}

	c.log.Debug("semantic cache hit",
		"query", query, "cached_query", best.query, "similarity", bestSim)

	// Copy so callers cannot mutate the cached slice.
	out := make([]article.Scored, len(best.articles))
	copy(out, best.articles)
	return out, vec, true
}

// Store records a completed search outcome. The embedding computed at
// Lookup time may be passed to avoid re-embedding; nil re-embeds here.
// Best-effort: failures log and return.
func (c *SemanticCache) Store(ctx context.Context, query, category string, embedding []float32, articles []article.Scored) {
	if embedding == nil {
		var err error
		embedding, err = c.embedder.Embed(ctx, query)
		if err != nil {
			c.log.Debug("cache store skipped", "error", err)
			return
		}
	}

	kept := make([]article.Scored, len(articles))
	copy(kept, articles)

	now := time.Now()
	entry := &cacheEntry{
		query:     query,
		category:  category,
		embedding: embedding,
		articles:  kept,
		createdAt: now,
		expiresAt: now.Add(c.cfg.TTL),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	if len(c.entries) > c.cfg.MaxEntries {
		// Entries append in creation order; drop the oldest.
		c.entries = c.entries[len(c.entries)-c.cfg.MaxEntries:]
	}
}

// Invalidate drops every entry in a category, or everything when
// category is "*".
func (c *SemanticCache) Invalidate(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if category == "*" {
		c.entries = nil
		return
	}
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.category != category {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

// Len reports the current entry count, expired included.
func (c *SemanticCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper. Idempotent.
func (c *SemanticCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *SemanticCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.purgeExpired(time.Now())
		case <-c.stop:
			return
		}
	}
}

func (c *SemanticCache) purgeExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = kept
}
