package index

import (
	"context"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
)

// lexicalDocument is the Bleve document shape. Title is boosted over
// abstract and body at mapping time.
type lexicalDocument struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Body     string `json:"body"`
	Authors  string `json:"authors"`
}

// LexicalStore wraps a Bleve index for BM25 term relevance over article
// text. An empty path builds an in-memory index.
type LexicalStore struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewLexicalStore opens or creates the Bleve index at path.
func NewLexicalStore(path string) (*LexicalStore, error) {
	m := lexicalMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return &LexicalStore{index: idx}, nil
}

func lexicalMapping() mapping.IndexMapping {
	title := bleve.NewTextFieldMapping()
	title.Analyzer = "en"

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "en"

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", title)
	doc.AddFieldMappingsAt("abstract", text)
	doc.AddFieldMappingsAt("body", text)
	doc.AddFieldMappingsAt("authors", text)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = "en"
	return m
}

// Add indexes articles by ID.
func (s *LexicalStore) Add(ctx context.Context, ids []string, articles []article.Article) error {
	if len(ids) != len(articles) {
		return errors.New(errors.ErrCodeInvalidInput, "ids and articles length mismatch", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for i, id := range ids {
		a := articles[i]
		var body strings.Builder
		for _, section := range a.FullText {
			body.WriteString(section)
			body.WriteString("\n")
		}
		doc := lexicalDocument{
			Title:    a.Title,
			Abstract: a.Abstract,
			Body:     body.String(),
			Authors:  strings.Join(a.Authors, " "),
		}
		if err := batch.Index(id, doc); err != nil {
			return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return nil
}

// lexicalHit is one BM25 match.
type lexicalHit struct {
	ID    string
	Score float64
}

// search returns the top-k matching document IDs with BM25 scores.
func (s *LexicalStore) search(ctx context.Context, query string, k int) ([]lexicalHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = k

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
	}

	hits := make([]lexicalHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, lexicalHit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Remove deletes documents by ID.
func (s *LexicalStore) Remove(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := s.index.Batch(batch); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return nil
}

// Count returns the indexed document count.
func (s *LexicalStore) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Close releases the index.
func (s *LexicalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
