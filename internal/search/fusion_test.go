package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/article"
)

func ranked(doi, title string, rank int, score float64) article.Ranked {
	return article.Ranked{
		Article: article.Article{DOI: doi, Title: title},
		Rank:    rank,
		Score:   score,
	}
}

func TestFuse_ItemInBothListsRanksFirst(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	vec := []article.Ranked{
		ranked("10.1/a", "A", 0, 0.95),
		ranked("10.1/b", "B", 1, 0.90),
	}
	lex := []article.Ranked{
		ranked("10.1/b", "B", 0, 12.0),
		ranked("10.1/c", "C", 1, 9.0),
	}

	results := f.Fuse(vec, lex)
	require.Len(t, results, 3)
	assert.Equal(t, "10.1/b", results[0].Article.DOI)
	assert.True(t, results[0].InBothLists)
	assert.InDelta(t, 1.0, results[0].RRFScore, 1e-9)
}

func TestFuse_SingleListItemStillScored(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	results := f.Fuse(
		[]article.Ranked{ranked("10.1/only-vec", "V", 0, 0.8)},
		nil,
	)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].RRFScore)
	assert.Equal(t, 1, results[0].VecRank)
	assert.Zero(t, results[0].LexRank)
}

func TestFuse_NoDoubleCountWithinOneList(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	// Same DOI at two ranks in the vector list: only the best rank counts.
	dup := f.Fuse([]article.Ranked{
		ranked("10.1/a", "A", 0, 0.9),
		ranked("10.1/a", "A", 3, 0.5),
		ranked("10.1/b", "B", 1, 0.8),
	}, nil)

	clean := f.Fuse([]article.Ranked{
		ranked("10.1/a", "A", 0, 0.9),
		ranked("10.1/b", "B", 1, 0.8),
	}, nil)

	require.Len(t, dup, 2)
	assert.Equal(t, clean[0].RRFScore, dup[0].RRFScore)
	assert.Equal(t, clean[1].RRFScore, dup[1].RRFScore)
}

func TestFuse_WeightsShiftRanking(t *testing.T) {
	vec := []article.Ranked{ranked("10.1/v", "V", 0, 0.9)}
	lex := []article.Ranked{ranked("10.1/l", "L", 0, 10)}

	vecHeavy := NewFusionEngine(60, FusionWeights{Vector: 0.9, Lexical: 0.1}).Fuse(vec, lex)
	assert.Equal(t, "10.1/v", vecHeavy[0].Article.DOI)

	lexHeavy := NewFusionEngine(60, FusionWeights{Vector: 0.1, Lexical: 0.9}).Fuse(vec, lex)
	assert.Equal(t, "10.1/l", lexHeavy[0].Article.DOI)
}

func TestFuse_IdentityFallsBackToURLAndTitle(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	vec := []article.Ranked{{
		Article: article.Article{Title: "Shared Work", URL: "https://x.org/1"},
		Rank:    0, Score: 0.9,
	}}
	lex := []article.Ranked{{
		Article: article.Article{Title: "Shared Work", URL: "https://x.org/1"},
		Rank:    0, Score: 11,
	}}

	results := f.Fuse(vec, lex)
	require.Len(t, results, 1)
	assert.True(t, results[0].InBothLists)
}

func TestFuse_EmptyInputs(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	results := f.Fuse(nil, nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFuse_DeterministicTieBreak(t *testing.T) {
	f := NewFusionEngine(0, FusionWeights{})

	// Two vector-only items at equal effective rank via separate calls
	// must order by key.
	results := f.Fuse([]article.Ranked{
		ranked("10.1/zz", "Z", 0, 0.9),
	}, []article.Ranked{
		ranked("10.1/aa", "A", 0, 10),
	})
	require.Len(t, results, 2)
	// 0.7/(61) beats 0.3/(61).
	assert.Equal(t, "10.1/zz", results[0].Article.DOI)

	equal := NewFusionEngine(60, FusionWeights{Vector: 0.5, Lexical: 0.5}).Fuse([]article.Ranked{
		ranked("10.1/zz", "Z", 0, 0.9),
	}, []article.Ranked{
		ranked("10.1/aa", "A", 0, 10),
	})
	assert.Equal(t, "10.1/aa", equal[0].Article.DOI)
}
