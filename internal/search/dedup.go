package search

import (
	"github.com/litmesh/litmesh/internal/article"
)

// Deduplicator merges same-work records discovered across sources. The
// same paper routinely arrives from two or three databases with
// different completeness: one copy has the PDF link, another the
// citation count, a third a usable abstract.
//
// Identity is the dedup key (normalized DOI, else source-qualified ID,
// else normalized title; see article.Key). On collision a merge rule
// decides which record survives:
//
//  1. prefer the record with a PDF URL
//  2. else prefer the higher citation count
//  3. else prefer the one with a non-empty abstract
//  4. otherwise keep the first seen
//
// Output order is stable relative to first occurrence among survivors,
// so deduplication never reorders what the sources returned.
type Deduplicator struct{}

// NewDeduplicator creates a deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate collapses the concatenated per-source lists for one tier
// into one record per unique key. Records without any identity (no DOI,
// no source ID, no usable title) cannot be keyed and are dropped.
// Idempotent: deduplicating an already-deduplicated list is a no-op.
func (d *Deduplicator) Deduplicate(articles []article.Article) []article.Article {
	if len(articles) <= 1 {
		return articles
	}

	index := make(map[string]int, len(articles))
	out := make([]article.Article, 0, len(articles))

	for _, a := range articles {
		key := a.Key()
		if key == "" {
			continue
		}
		if at, ok := index[key]; ok {
			out[at] = mergeRecords(out[at], a)
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}
	return out
}

// mergeRecords picks the survivor of two same-key records, then backfills
// the survivor's empty fields from the loser so no information is lost.
func mergeRecords(first, second article.Article) article.Article {
	winner, loser := first, second
	if preferSecond(first, second) {
		winner, loser = second, first
	}

	if winner.DOI == "" {
		winner.DOI = loser.DOI
	}
	if winner.Abstract == "" {
		winner.Abstract = loser.Abstract
	}
	if winner.PDFURL == "" {
		winner.PDFURL = loser.PDFURL
	}
	if winner.URL == "" {
		winner.URL = loser.URL
	}
	if winner.Year == 0 {
		winner.Year = loser.Year
	}
	if winner.CitationCount < loser.CitationCount {
		winner.CitationCount = loser.CitationCount
	}
	if len(winner.Authors) == 0 {
		winner.Authors = loser.Authors
	}
	if len(winner.FullText) == 0 {
		winner.FullText = loser.FullText
	}
	if winner.Format == "" {
		winner.Format = loser.Format
	}
	if winner.Journal == nil {
		winner.Journal = loser.Journal
	}
	if winner.Language == "" {
		winner.Language = loser.Language
	}
	return winner
}

// preferSecond applies the merge rule; false means first survives.
func preferSecond(first, second article.Article) bool {
	if (first.PDFURL != "") != (second.PDFURL != "") {
		return second.PDFURL != ""
	}
	if first.CitationCount != second.CitationCount {
		return second.CitationCount > first.CitationCount
	}
	if (first.Abstract != "") != (second.Abstract != "") {
		return second.Abstract != ""
	}
	return false
}
