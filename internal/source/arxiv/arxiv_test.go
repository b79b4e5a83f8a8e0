package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/source"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.01234v2</id>
    <title>Federated Learning with
        Differential Privacy</title>
    <summary>We study privacy-preserving federated learning.</summary>
    <published>2024-01-03T12:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/pdf/2401.01234v2" title="pdf" rel="related"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1901.00001v1</id>
    <title>An Older Result</title>
    <summary>Older work.</summary>
    <published>2019-01-01T00:00:00Z</published>
    <author><name>Grace Hopper</name></author>
  </entry>
</feed>`

func TestSearch_ParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("search_query"), "federated learning")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	a := New(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "federated learning", 10, source.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "arxiv", first.Source)
	assert.Equal(t, "2401.01234v2", first.SourceID)
	assert.Equal(t, "Federated Learning with Differential Privacy", first.Title)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Authors)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, "http://arxiv.org/pdf/2401.01234v2", first.PDFURL)

	// Entries without an explicit pdf link get the derived one.
	assert.Equal(t, "http://arxiv.org/pdf/1901.00001v1", got[1].PDFURL)
}

func TestSearch_AppliesYearFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	a := New(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "q", 10, source.Filters{YearFrom: 2020})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2024, got[0].Year)
}

func TestSearch_ClassifiesHTTPFailures(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  string
		retryable bool
	}{
		{http.StatusTooManyRequests, errors.ErrCodeSourceRateLimited, true},
		{http.StatusServiceUnavailable, errors.ErrCodeSourceUnavailable, true},
		{http.StatusBadRequest, errors.ErrCodeSourceFailed, false},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		a := New(WithBaseURL(srv.URL))
		_, err := a.Search(context.Background(), "q", 10, source.Filters{})
		require.Error(t, err)
		assert.Equal(t, tt.wantCode, errors.GetCode(err))
		assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		srv.Close()
	}
}

func TestSearch_EmptyFeedIsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	a := New(WithBaseURL(srv.URL))
	got, err := a.Search(context.Background(), "nothing matches", 10, source.Filters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
