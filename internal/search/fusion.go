package search

import (
	"sort"

	"github.com/litmesh/litmesh/internal/article"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains.
const DefaultRRFConstant = 60

// FusionWeights splits fusion influence between the two rankings.
type FusionWeights struct {
	Vector  float64 `yaml:"vector" json:"vector"`
	Lexical float64 `yaml:"lexical" json:"lexical"`
}

// DefaultFusionWeights favors vector similarity 0.7 / lexical 0.3.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Vector: 0.7, Lexical: 0.3}
}

// FusedResult is a single article after RRF fusion of the vector and
// lexical rankings.
type FusedResult struct {
	Article article.Article

	// RRFScore is the combined score, normalized so the best item is 1.0.
	RRFScore float64

	// VecRank / LexRank are 1-indexed positions, 0 if absent from a list.
	VecRank int
	LexRank int

	// VecScore / LexScore preserve the source-native scores.
	VecScore float64
	LexScore float64

	// InBothLists marks articles found by both rankings.
	InBothLists bool
}

// FusionEngine combines a vector-similarity ranking and a lexical
// ranking of the same query via Reciprocal Rank Fusion:
//
//	RRF_score(d) = Σ weight_i / (k + rank_i + 1)    (0-based rank_i)
//
// An article in only one list still gets a score, just a smaller one;
// there is no missing-rank penalty. An article appearing at several
// ranks within one list contributes only its best rank, never twice.
type FusionEngine struct {
	k       int
	weights FusionWeights
}

// NewFusionEngine creates a fusion engine; k <= 0 defaults to 60 and
// zero weights default to 0.7 vector / 0.3 lexical.
func NewFusionEngine(k int, weights FusionWeights) *FusionEngine {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if weights.Vector == 0 && weights.Lexical == 0 {
		weights = DefaultFusionWeights()
	}
	return &FusionEngine{k: k, weights: weights}
}

// Fuse merges the two rankings into one, best first. Identity is the
// fusion key (DOI, else URL, else normalized title); unkeyable entries
// are dropped.
//
// Sort order: RRFScore desc, then in-both-lists first, then fusion key
// ascending so equal scores order deterministically.
func (f *FusionEngine) Fuse(vec, lex []article.Ranked) []FusedResult {
	if len(vec) == 0 && len(lex) == 0 {
		return []FusedResult{}
	}

	type keyed struct {
		FusedResult
		key string
	}
	scores := make(map[string]*keyed, len(vec)+len(lex))

	get := func(a article.Article) *keyed {
		key := a.FusionKey()
		if key == "" {
			return nil
		}
		if r, ok := scores[key]; ok {
			return r
		}
		r := &keyed{FusedResult: FusedResult{Article: a}, key: key}
		scores[key] = r
		return r
	}

	for _, r := range vec {
		entry := get(r.Article)
		if entry == nil || entry.VecRank > 0 {
			continue
		}
		entry.VecRank = r.Rank + 1
		entry.VecScore = r.Score
		entry.RRFScore += f.weights.Vector / float64(f.k+r.Rank+1)
	}

	for _, r := range lex {
		entry := get(r.Article)
		if entry == nil || entry.LexRank > 0 {
			continue
		}
		entry.LexRank = r.Rank + 1
		entry.LexScore = r.Score
		entry.RRFScore += f.weights.Lexical / float64(f.k+r.Rank+1)
		if entry.VecRank > 0 {
			entry.InBothLists = true
		}
	}

	ordered := make([]*keyed, 0, len(scores))
	for _, r := range scores {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.RRFScore != b.RRFScore {
			return a.RRFScore > b.RRFScore
		}
		if a.InBothLists != b.InBothLists {
			return a.InBothLists
		}
		return a.key < b.key
	})

	results := make([]FusedResult, len(ordered))
	for i, r := range ordered {
		results[i] = r.FusedResult
	}
	normalizeScores(results)
	return results
}

// normalizeScores scales RRF scores so the best item is 1.0.
func normalizeScores(results []FusedResult) {
	if len(results) == 0 || results[0].RRFScore == 0 {
		return
	}
	max := results[0].RRFScore
	for i := range results {
		results[i].RRFScore /= max
	}
}
