// Package arxiv implements the source adapter for the arXiv export API.
// It is the representative external database adapter; other databases
// plug in through the same source.Adapter contract.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/source"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

// Adapter searches arXiv through its Atom export API.
type Adapter struct {
	client  *http.Client
	baseURL string
}

var _ source.Adapter = (*Adapter)(nil)

// Option configures the adapter.
type Option func(*Adapter)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// WithBaseURL overrides the export API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		if u != "" {
			a.baseURL = u
		}
	}
}

// New creates an arXiv adapter with a 20 second request timeout.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name identifies the adapter inside the registry.
func (a *Adapter) Name() string {
	return "arxiv"
}

// Search queries the export API and parses the Atom feed.
// Returns an empty slice for "no results"; failures return classifiable
// errors so the invoker can decide retry eligibility.
func (a *Adapter) Search(ctx context.Context, query string, limit int, filters source.Filters) ([]article.Article, error) {
	if limit <= 0 {
		limit = 25
	}

	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(limit))
	q.Set("sortBy", "relevance")

	doc, err := a.fetchDocument(ctx, a.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	results := make([]article.Article, 0, limit)
	doc.Find("entry").Each(func(_ int, entry *goquery.Selection) {
		art := parseEntry(entry)
		if art.SourceID == "" && art.Title == "" {
			return
		}
		if filters.Match(&art) {
			results = append(results, art)
		}
	})

	return results, nil
}

func (a *Adapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, err)
	}
	req.Header.Set("User-Agent", "litmesh/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.ClassifySourceError(a.Name(), err)
	}
	defer resp.Body.Close()

	if httpErr := errors.FromHTTPStatus(a.Name(), resp.StatusCode); httpErr != nil {
		return nil, httpErr
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceFailed, fmt.Errorf("parse feed: %w", err))
	}
	return doc, nil
}

// parseEntry extracts one article from an Atom <entry> element.
func parseEntry(entry *goquery.Selection) article.Article {
	art := article.Article{Source: "arxiv"}

	art.Title = cleanWhitespace(entry.Find("title").First().Text())
	art.Abstract = cleanWhitespace(entry.Find("summary").First().Text())

	// The entry ID looks like http://arxiv.org/abs/2401.01234v2.
	id := strings.TrimSpace(entry.Find("id").First().Text())
	art.URL = id
	art.SourceID = strings.TrimPrefix(id, "http://arxiv.org/abs/")
	art.SourceID = strings.TrimPrefix(art.SourceID, "https://arxiv.org/abs/")

	entry.Find("author name").Each(func(_ int, name *goquery.Selection) {
		if n := strings.TrimSpace(name.Text()); n != "" {
			art.Authors = append(art.Authors, n)
		}
	})

	if published := strings.TrimSpace(entry.Find("published").First().Text()); len(published) >= 4 {
		if year, err := strconv.Atoi(published[:4]); err == nil {
			art.Year = year
		}
	}

	entry.Find("link").Each(func(_ int, link *goquery.Selection) {
		if title, _ := link.Attr("title"); title == "pdf" {
			art.PDFURL, _ = link.Attr("href")
		}
	})
	if art.PDFURL == "" && art.SourceID != "" {
		art.PDFURL = "http://arxiv.org/pdf/" + art.SourceID
	}

	if doi := strings.TrimSpace(entry.Find("doi").First().Text()); doi != "" {
		art.DOI = doi
	}

	return art
}

func cleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
