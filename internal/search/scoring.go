package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/litmesh/litmesh/internal/article"
)

// ScoringWeights distributes the 0-100 score budget across features.
// Each feature is clamped to [0,1] before weighting, so no single
// feature can dominate by unbounded growth.
type ScoringWeights struct {
	TermOverlap float64 `yaml:"term_overlap" json:"term_overlap"`
	FullText    float64 `yaml:"full_text" json:"full_text"`
	Citations   float64 `yaml:"citations" json:"citations"`
	Journal     float64 `yaml:"journal" json:"journal"`
	Recency     float64 `yaml:"recency" json:"recency"`
}

// CitationTier maps a minimum citation count to a [0,1] feature value.
// Tiered thresholds keep one mega-cited outlier from skewing comparisons.
type CitationTier struct {
	MinCount int     `yaml:"min_count" json:"min_count"`
	Value    float64 `yaml:"value" json:"value"`
}

// ScoringConfig tunes the scoring engine. Thresholds are configuration,
// not code, so operators can retune tiers without redeploying.
type ScoringConfig struct {
	// P1/P2/P3 thresholds partition scores into priority tiers. Scores
	// below P3Threshold are rejected.
	P1Threshold float64 `yaml:"p1_threshold" json:"p1_threshold"`
	P2Threshold float64 `yaml:"p2_threshold" json:"p2_threshold"`
	P3Threshold float64 `yaml:"p3_threshold" json:"p3_threshold"`

	Weights ScoringWeights `yaml:"weights" json:"weights"`

	// CitationTiers must be sorted ascending by MinCount.
	CitationTiers []CitationTier `yaml:"citation_tiers" json:"citation_tiers"`

	// HIndexSaturation is the journal h-index at which that component
	// saturates (contributes its full share).
	HIndexSaturation int `yaml:"h_index_saturation" json:"h_index_saturation"`

	// CitednessCeiling is the 2-year mean citedness past which that
	// component saturates.
	CitednessCeiling float64 `yaml:"citedness_ceiling" json:"citedness_ceiling"`

	// ReferenceYear anchors the recency feature. Fixing it in config
	// keeps scoring pure: same article, same config, same score.
	ReferenceYear int `yaml:"reference_year" json:"reference_year"`
}

// DefaultScoringConfig returns the standard thresholds and weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		P1Threshold: 70,
		P2Threshold: 50,
		P3Threshold: 30,
		Weights: ScoringWeights{
			TermOverlap: 10,
			FullText:    20,
			Citations:   25,
			Journal:     25,
			Recency:     20,
		},
		CitationTiers: []CitationTier{
			{MinCount: 1, Value: 0.2},
			{MinCount: 10, Value: 0.4},
			{MinCount: 50, Value: 0.6},
			{MinCount: 100, Value: 0.8},
			{MinCount: 500, Value: 1.0},
		},
		HIndexSaturation: 100,
		CitednessCeiling: 10.0,
		ReferenceYear:    time.Now().UTC().Year(),
	}
}

// ScoringEngine computes a quality score and a priority tier per
// article. Pure: it holds only immutable config, so the same article and
// query always score identically.
type ScoringEngine struct {
	cfg ScoringConfig
}

// NewScoringEngine creates a scoring engine. Zero-value config fields
// fall back to defaults.
func NewScoringEngine(cfg ScoringConfig) *ScoringEngine {
	def := DefaultScoringConfig()
	if cfg.P1Threshold == 0 && cfg.P2Threshold == 0 && cfg.P3Threshold == 0 {
		cfg.P1Threshold, cfg.P2Threshold, cfg.P3Threshold = def.P1Threshold, def.P2Threshold, def.P3Threshold
	}
	if cfg.Weights == (ScoringWeights{}) {
		cfg.Weights = def.Weights
	}
	if len(cfg.CitationTiers) == 0 {
		cfg.CitationTiers = def.CitationTiers
	}
	sort.Slice(cfg.CitationTiers, func(i, j int) bool {
		return cfg.CitationTiers[i].MinCount < cfg.CitationTiers[j].MinCount
	})
	if cfg.HIndexSaturation <= 0 {
		cfg.HIndexSaturation = def.HIndexSaturation
	}
	if cfg.CitednessCeiling <= 0 {
		cfg.CitednessCeiling = def.CitednessCeiling
	}
	if cfg.ReferenceYear <= 0 {
		cfg.ReferenceYear = def.ReferenceYear
	}
	return &ScoringEngine{cfg: cfg}
}

// Score computes the weighted feature sum for one article against the
// original query and classifies it into a priority tier.
func (s *ScoringEngine) Score(a article.Article, query string) article.Scored {
	w := s.cfg.Weights
	reasons := make([]string, 0, 5)
	total := 0.0

	add := func(name string, value, weight float64) {
		pts := clamp01(value) * weight
		total += pts
		reasons = append(reasons, fmt.Sprintf("%s: %.1f/%.0f", name, pts, weight))
	}

	add("term_overlap", termOverlap(a.Title, query), w.TermOverlap)
	add("full_text", fullTextValue(a), w.FullText)
	add("citations", s.citationValue(a.CitationCount), w.Citations)
	add("journal", s.journalValue(a.Journal), w.Journal)
	add("recency", s.recencyValue(a.Year), w.Recency)

	return article.Scored{
		Article:  a,
		Score:    total,
		Priority: s.Classify(total),
		Reasons:  reasons,
	}
}

// ScoreAll scores a batch against one query.
func (s *ScoringEngine) ScoreAll(articles []article.Article, query string) []article.Scored {
	out := make([]article.Scored, 0, len(articles))
	for _, a := range articles {
		out = append(out, s.Score(a, query))
	}
	return out
}

// Classify maps a score to its priority tier.
func (s *ScoringEngine) Classify(score float64) article.Priority {
	switch {
	case score >= s.cfg.P1Threshold:
		return article.PriorityP1
	case score >= s.cfg.P2Threshold:
		return article.PriorityP2
	case score >= s.cfg.P3Threshold:
		return article.PriorityP3
	default:
		return article.PriorityReject
	}
}

// termOverlap is the fraction of query tokens present in the title.
func termOverlap(title, query string) float64 {
	qTokens := tokenizeQuery(query)
	if len(qTokens) == 0 {
		return 0
	}
	titleSet := make(map[string]bool)
	for _, t := range tokenizeQuery(title) {
		titleSet[t] = true
	}

	hits := 0
	for _, q := range qTokens {
		if titleSet[q] {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

// fullTextValue rewards structured full text over a bare PDF link.
func fullTextValue(a article.Article) float64 {
	switch {
	case a.HasFullText() && a.Format != "":
		return 1.0
	case a.HasFullText():
		return 0.7
	case a.PDFURL != "":
		return 0.4
	default:
		return 0
	}
}

// citationValue walks the tier table; counts below the lowest tier
// score zero.
func (s *ScoringEngine) citationValue(count int) float64 {
	value := 0.0
	for _, tier := range s.cfg.CitationTiers {
		if count < tier.MinCount {
			break
		}
		value = tier.Value
	}
	return value
}

// journalValue derives a [0,1] venue signal from h-index and 2-year
// mean citedness, each saturating at its configured bound. The h-index
// carries 60% of the signal, citedness 40%.
func (s *ScoringEngine) journalValue(j *article.JournalSignal) float64 {
	if j == nil {
		return 0
	}
	h := clamp01(float64(j.HIndex) / float64(s.cfg.HIndexSaturation))
	c := clamp01(j.MeanCitedness / s.cfg.CitednessCeiling)
	return h*0.6 + c*0.4
}

// recencyValue is a piecewise decay on article age. Unknown years score
// zero rather than guessing.
func (s *ScoringEngine) recencyValue(year int) float64 {
	if year <= 0 {
		return 0
	}
	age := s.cfg.ReferenceYear - year
	switch {
	case age <= 1:
		return 1.0
	case age <= 3:
		return 0.8
	case age <= 5:
		return 0.6
	case age <= 10:
		return 0.35
	default:
		return 0.1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FilterTier keeps only articles classified at exactly the given tier.
func FilterTier(scored []article.Scored, tier Tier) []article.Scored {
	want := tier.Priority()
	out := make([]article.Scored, 0, len(scored))
	for _, sa := range scored {
		if sa.Priority == want {
			out = append(out, sa)
		}
	}
	return out
}

// SortByScore orders articles best first, breaking score ties by title
// so ordering stays deterministic.
func SortByScore(scored []article.Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return strings.ToLower(scored[i].Title) < strings.ToLower(scored[j].Title)
	})
}
