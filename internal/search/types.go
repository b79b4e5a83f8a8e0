// Package search implements the priority-tiered hybrid search pipeline:
// query expansion, parallel fan-out across source adapters, cross-source
// deduplication, feature-based scoring with tier classification,
// reciprocal rank fusion of vector and lexical rankings, semantic result
// caching, and the phase escalation state machine that drives them.
package search

import (
	"time"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/source"
)

// Tier is a quality band of the staged search. The controller exhausts
// P1 before degrading to P2, and P2 before P3.
type Tier int

const (
	// TierP1 searches the primary (verbatim) query variants.
	TierP1 Tier = 1
	// TierP2 searches synonym and translation variants.
	TierP2 Tier = 2
	// TierP3 searches broadened variants.
	TierP3 Tier = 3
)

// Tiers lists the tiers in escalation order.
var Tiers = []Tier{TierP1, TierP2, TierP3}

// String returns a string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierP1:
		return "P1"
	case TierP2:
		return "P2"
	case TierP3:
		return "P3"
	default:
		return "unknown"
	}
}

// Priority returns the article priority this tier collects.
func (t Tier) Priority() article.Priority {
	switch t {
	case TierP1:
		return article.PriorityP1
	case TierP2:
		return article.PriorityP2
	case TierP3:
		return article.PriorityP3
	default:
		return article.PriorityReject
	}
}

// Next returns the following tier and whether one exists.
func (t Tier) Next() (Tier, bool) {
	if t >= TierP3 {
		return t, false
	}
	return t + 1, true
}

// Strategy captures caller intent for one search session: the original
// query, the ordered query variants per tier, the per-source expected
// counts, the filters and the target total. Immutable once created.
type Strategy struct {
	// Original is the raw caller query.
	Original string

	// Primary, Secondary and Tertiary are the query variants searched at
	// P1, P2 and P3 respectively. Secondary and Tertiary may be empty; a
	// tier with no variants is skipped entirely.
	Primary   []string
	Secondary []string
	Tertiary  []string

	// Expected is the per-source result count requested at each tier.
	Expected map[Tier]int

	// Filters apply to every source call.
	Filters source.Filters

	// Target is the total article count the caller wants.
	Target int

	// Category partitions the semantic cache (e.g. "background",
	// "methods"). Empty is a valid category.
	Category string
}

// QueriesFor returns the variants searched at the given tier.
func (s *Strategy) QueriesFor(t Tier) []string {
	switch t {
	case TierP1:
		return s.Primary
	case TierP2:
		return s.Secondary
	case TierP3:
		return s.Tertiary
	default:
		return nil
	}
}

// ExpectedFor returns the per-source expected count for a tier,
// falling back to the target when unset.
func (s *Strategy) ExpectedFor(t Tier) int {
	if n, ok := s.Expected[t]; ok && n > 0 {
		return n
	}
	if s.Target > 0 {
		return s.Target
	}
	return 10
}

// Validate surfaces malformed input before any network activity.
func (s *Strategy) Validate() error {
	if len(s.Primary) == 0 || s.Original == "" {
		return errors.New(errors.ErrCodeQueryEmpty, "search strategy has no query", nil)
	}
	if s.Target <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "target count must be positive", nil)
	}
	return s.Filters.Validate()
}

// Progress is a transient snapshot delivered to the caller's progress
// sink after each tier (and per source batch). Never persisted.
type Progress struct {
	// RunID identifies the escalation run.
	RunID string

	// State names the controller state, e.g. "P1_SEARCH" or "DONE".
	State string

	// Tier is the tier being searched.
	Tier Tier

	// Found is the number of accumulated articles across tiers so far.
	Found int

	// Target echoes the caller's target count.
	Target int

	// PerSource counts raw results per source so far.
	PerSource map[string]int

	// Elapsed is the time since the run started.
	Elapsed time.Duration
}

// Checkpoint is handed to the approval callback before escalating to a
// lower-quality tier. The caller may accept the partial set instead.
type Checkpoint struct {
	// NextTier is the tier the controller wants to search next.
	NextTier Tier

	// Shortfall is target minus accumulated count.
	Shortfall int

	// Best holds the accumulated articles so far, best first.
	Best []article.Scored
}

// ProgressSink receives Progress snapshots. It is fire-and-forget: the
// pipeline never blocks on it and survives a panicking sink.
type ProgressSink func(Progress)

// ApprovalFunc decides whether to escalate past a checkpoint.
// Returning false accepts the partial result set.
type ApprovalFunc func(Checkpoint) bool

// Stats summarizes one escalation run.
type Stats struct {
	// RunID identifies the escalation run.
	RunID string `json:"run_id"`

	// FoundPerTier counts accepted articles per tier.
	FoundPerTier map[Tier]int `json:"found_per_tier"`

	// PerSource counts raw (pre-dedup) results per source.
	PerSource map[string]int `json:"per_source"`

	// FailedSources lists sources that contributed zero results due to
	// errors or open breakers.
	FailedSources []string `json:"failed_sources,omitempty"`

	// Used is the number of articles in the final set.
	Used int `json:"used"`

	// Shortfall is max(0, target - found) at completion.
	Shortfall int `json:"shortfall"`

	// CacheHit reports whether the semantic cache answered the query.
	CacheHit bool `json:"cache_hit"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the final outcome of an escalation run: the ordered,
// truncated article set plus summary statistics. An exhaustive run that
// finds fewer than target articles is a valid Result, not an error.
type Result struct {
	Articles []article.Scored `json:"articles"`
	Stats    Stats            `json:"stats"`
}
