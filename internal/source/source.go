// Package source defines the uniform capability every article database
// exposes to the pipeline, the registry of configured sources, and the
// resilient invoker that wraps each adapter call with retry and a
// per-source circuit breaker.
package source

import (
	"context"
	"strings"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
)

// Filters restricts a source search.
type Filters struct {
	// RequireFullText keeps only records with structured full text or a PDF.
	RequireFullText bool `yaml:"require_full_text" json:"require_full_text"`

	// YearFrom/YearTo bound the publication year (inclusive, 0 = unbounded).
	YearFrom int `yaml:"year_from" json:"year_from"`
	YearTo   int `yaml:"year_to" json:"year_to"`

	// OpenAccessOnly keeps only openly accessible records.
	OpenAccessOnly bool `yaml:"open_access_only" json:"open_access_only"`

	// Languages keeps only records in these languages (empty = all).
	Languages []string `yaml:"languages" json:"languages"`
}

// Validate checks filter values before any network activity.
func (f Filters) Validate() error {
	if f.YearFrom < 0 || f.YearTo < 0 {
		return errors.New(errors.ErrCodeInvalidFilter, "year bounds must be non-negative", nil)
	}
	if f.YearFrom > 0 && f.YearTo > 0 && f.YearFrom > f.YearTo {
		return errors.New(errors.ErrCodeInvalidFilter, "year_from exceeds year_to", nil)
	}
	for _, l := range f.Languages {
		if strings.TrimSpace(l) == "" {
			return errors.New(errors.ErrCodeInvalidFilter, "empty language filter value", nil)
		}
	}
	return nil
}

// Match reports whether an article passes the filters. Adapters that
// cannot filter server-side apply this client-side.
func (f Filters) Match(a *article.Article) bool {
	if f.RequireFullText && !a.HasFullText() && a.PDFURL == "" {
		return false
	}
	if f.YearFrom > 0 && a.Year > 0 && a.Year < f.YearFrom {
		return false
	}
	if f.YearTo > 0 && a.Year > 0 && a.Year > f.YearTo {
		return false
	}
	if f.OpenAccessOnly && a.PDFURL == "" {
		return false
	}
	if len(f.Languages) > 0 && a.Language != "" {
		ok := false
		for _, l := range f.Languages {
			if strings.EqualFold(l, a.Language) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Adapter is the uniform search capability implemented once per external
// database and once for the local hybrid index.
//
// Implementations return an empty slice, not an error, for "no results",
// and return a classifiable error (see errors.ClassifySourceError) on
// failure so the invoker can decide retry eligibility.
type Adapter interface {
	// Name identifies the source (e.g. "arxiv", "crossref", "local").
	Name() string

	// Search returns up to limit articles matching the query and filters.
	Search(ctx context.Context, query string, limit int, filters Filters) ([]article.Article, error)
}
