package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/article"
)

func articleWith(year int, pdfURL string, fullText map[string]string) *article.Article {
	return &article.Article{
		Title:    "Sample",
		Source:   "test",
		SourceID: "1",
		Year:     year,
		PDFURL:   pdfURL,
		FullText: fullText,
	}
}

func TestRegistry_EnabledInPriorityOrder(t *testing.T) {
	r := NewRegistry(
		Entry{Adapter: &fakeAdapter{name: "core"}, Priority: 2, Enabled: true},
		Entry{Adapter: &fakeAdapter{name: "arxiv"}, Priority: 1, Enabled: true},
		Entry{Adapter: &fakeAdapter{name: "doaj"}, Priority: 3, Enabled: false},
		Entry{Adapter: &fakeAdapter{name: "crossref"}, Priority: 1, Enabled: true},
	)

	enabled := r.Enabled()
	require.Len(t, enabled, 3)

	names := make([]string, len(enabled))
	for i, a := range enabled {
		names[i] = a.Name()
	}
	// Equal priorities resolve by name for determinism.
	assert.Equal(t, []string{"arxiv", "crossref", "core"}, names)

	assert.Equal(t, 4, r.Len())
	assert.Len(t, r.All(), 4)
}

func TestFilters_Validate(t *testing.T) {
	assert.NoError(t, Filters{}.Validate())
	assert.NoError(t, Filters{YearFrom: 2019, YearTo: 2024}.Validate())
	assert.Error(t, Filters{YearFrom: 2024, YearTo: 2019}.Validate())
	assert.Error(t, Filters{Languages: []string{"en", " "}}.Validate())
}

func TestFilters_Match(t *testing.T) {
	a := articleWith(2020, "", nil)
	assert.True(t, Filters{}.Match(a))
	assert.True(t, Filters{YearFrom: 2019, YearTo: 2021}.Match(a))
	assert.False(t, Filters{YearFrom: 2021}.Match(a))
	assert.False(t, Filters{YearTo: 2019}.Match(a))
	assert.False(t, Filters{RequireFullText: true}.Match(a))
	assert.False(t, Filters{OpenAccessOnly: true}.Match(a))

	withPDF := articleWith(2020, "https://example.org/a.pdf", nil)
	assert.True(t, Filters{RequireFullText: true}.Match(withPDF))
	assert.True(t, Filters{OpenAccessOnly: true}.Match(withPDF))

	withText := articleWith(2020, "", map[string]string{"intro": "..."})
	assert.True(t, Filters{RequireFullText: true}.Match(withText))

	german := articleWith(2020, "", nil)
	german.Language = "de"
	assert.True(t, Filters{Languages: []string{"DE", "en"}}.Match(german))
	assert.False(t, Filters{Languages: []string{"en"}}.Match(german))
	// Unknown language passes: the filter only rejects declared mismatches.
	assert.True(t, Filters{Languages: []string{"en"}}.Match(a))
}
