// Package article defines the candidate-work data model shared by every
// stage of the search pipeline: raw records returned by source adapters,
// scored and tier-classified records, and the identity keys used for
// cross-source deduplication and rank fusion.
package article

import "fmt"

// Article is a candidate work returned by a source adapter.
//
// At least one of DOI, Source+SourceID, or Title must be present so the
// record can be keyed for deduplication. Articles are value types: merge
// steps produce new records rather than mutating shared state.
type Article struct {
	// DOI is the Digital Object Identifier, if known. Preferred identity.
	DOI string `json:"doi,omitempty"`

	// SourceID is the source-native identifier (e.g. an arXiv ID).
	SourceID string `json:"source_id,omitempty"`

	// Source names the adapter that produced this record.
	Source string `json:"source"`

	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`

	// Language is the ISO 639-1 publication language, if reported.
	Language string `json:"language,omitempty"`

	// CitationCount is the total citation count reported by the source.
	CitationCount int `json:"citation_count,omitempty"`

	URL    string `json:"url,omitempty"`
	PDFURL string `json:"pdf_url,omitempty"`

	// FullText maps section names (e.g. "introduction", "methods") to
	// section text when the source provides structured full text.
	FullText map[string]string `json:"full_text,omitempty"`

	// Format tags the structural format of the full text (e.g. "imrad").
	Format string `json:"format,omitempty"`

	// Journal carries venue quality signals when the source reports them.
	Journal *JournalSignal `json:"journal,omitempty"`
}

// JournalSignal holds venue-level quality indicators.
type JournalSignal struct {
	// HIndex is the journal h-index.
	HIndex int `json:"h_index,omitempty"`

	// MeanCitedness is the 2-year mean citedness (impact-factor analogue).
	MeanCitedness float64 `json:"mean_citedness,omitempty"`
}

// HasFullText reports whether the record carries any structured full text.
func (a *Article) HasFullText() bool {
	return len(a.FullText) > 0
}

// Priority is the quality tier assigned by the scoring engine.
type Priority int

const (
	// PriorityUnset marks an article that has not been scored yet.
	PriorityUnset Priority = 0

	// PriorityP1 is the highest quality band.
	PriorityP1 Priority = 1

	// PriorityP2 is the middle quality band.
	PriorityP2 Priority = 2

	// PriorityP3 is the minimum acceptable quality band.
	PriorityP3 Priority = 3

	// PriorityReject marks articles below the minimum acceptable score.
	// Rejected articles are excluded from every tier.
	PriorityReject Priority = 4
)

// String returns a string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityP1:
		return "P1"
	case PriorityP2:
		return "P2"
	case PriorityP3:
		return "P3"
	case PriorityReject:
		return "reject"
	default:
		return "unset"
	}
}

// Scored is an Article together with its quality score and tier.
//
// Priority is a pure function of Score against the configured thresholds;
// scoring the same article with the same config always yields the same
// Scored value.
type Scored struct {
	Article

	// Score is the weighted feature sum. Practically 0-100, not clamped.
	Score float64 `json:"score"`

	// Priority is the tier classification derived from Score.
	Priority Priority `json:"priority"`

	// Reasons lists human-readable score contributions for explainability.
	Reasons []string `json:"reasons,omitempty"`
}

// Ranked is an article at a position in one source-native ranking
// (vector similarity or lexical relevance). Rank is 0-based.
type Ranked struct {
	Article Article

	// Rank is the 0-based position in the originating list.
	Rank int

	// Score is the source-native score (cosine similarity, BM25, ...).
	Score float64
}

func (r Ranked) String() string {
	return fmt.Sprintf("#%d %s (%.3f)", r.Rank, r.Article.Title, r.Score)
}
