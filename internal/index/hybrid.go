package index

import (
	"context"
	"encoding/gob"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/embed"
	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/search"
	"github.com/litmesh/litmesh/internal/source"
)

const (
	lexicalDirName  = "lexical"
	vectorFileName  = "vectors.hnsw"
	docsFileName    = "docs.gob"
	lockFileName    = ".litmesh.lock"
	localSourceName = "local"
)

// HybridIndex is the local article store queried alongside the external
// databases: a Bleve lexical index and an HNSW vector store over the
// same documents, plus the article records themselves.
//
// It serves the controller two ways. As search.VectorIndex and
// search.LexicalIndex it exposes the two raw rankings the controller
// fuses per tier. As a source.Adapter it joins the registry fan-out
// like any external database, fusing its own rankings internally.
//
// An empty dir runs fully in memory (tests, ephemeral sessions). On
// disk, a flock-guarded lock file keeps two processes from writing the
// same index.
type HybridIndex struct {
	dir      string
	embedder embed.Embedder
	fusion   *search.FusionEngine
	log      *slog.Logger

	lexical *LexicalStore
	vector  *VectorStore

	mu   sync.RWMutex
	docs map[string]article.Article

	lock *flock.Flock
}

var (
	_ search.VectorIndex  = (*HybridIndex)(nil)
	_ search.LexicalIndex = (*HybridIndex)(nil)
	_ source.Adapter      = (*HybridIndex)(nil)
)

// Open creates or loads the hybrid index in dir ("" = in memory).
func Open(dir string, embedder embed.Embedder, fusion *search.FusionEngine, log *slog.Logger) (*HybridIndex, error) {
	if log == nil {
		log = slog.Default()
	}

	h := &HybridIndex{
		dir:      dir,
		embedder: embedder,
		fusion:   fusion,
		log:      log,
		docs:     make(map[string]article.Article),
	}

	lexicalPath := ""
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexCorrupt, err)
		}

		h.lock = flock.New(filepath.Join(dir, lockFileName))
		locked, err := h.lock.TryLock()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexLocked, err)
		}
		if !locked {
			return nil, errors.New(errors.ErrCodeIndexLocked,
				"index directory is locked by another process", nil).
				WithDetail("dir", dir)
		}
		lexicalPath = filepath.Join(dir, lexicalDirName)
	}

	lexical, err := NewLexicalStore(lexicalPath)
	if err != nil {
		h.unlock()
		return nil, err
	}
	h.lexical = lexical
	h.vector = NewVectorStore(VectorConfig{Dimensions: embedder.Dimensions()})

	if dir != "" {
		if err := h.loadDocs(); err != nil {
			h.unlock()
			return nil, err
		}
		if err := h.vector.Load(filepath.Join(dir, vectorFileName)); err != nil {
			h.unlock()
			return nil, err
		}
	}
	return h, nil
}

// Ingest embeds, indexes and stores articles. Records that cannot be
// keyed or have no text to embed are skipped, not fatal.
func (h *HybridIndex) Ingest(ctx context.Context, articles []article.Article) (int, error) {
	ids := make([]string, 0, len(articles))
	kept := make([]article.Article, 0, len(articles))
	texts := make([]string, 0, len(articles))

	for _, a := range articles {
		key := a.Key()
		if key == "" {
			h.log.Warn("ingest_skipped_unkeyable", "title", a.Title)
			continue
		}
		text := embeddingText(a)
		if text == "" {
			h.log.Warn("ingest_skipped_no_text", "key", key)
			continue
		}
		ids = append(ids, key)
		kept = append(kept, a)
		texts = append(texts, text)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	vectors, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	if err := h.vector.Add(ctx, ids, vectors); err != nil {
		return 0, err
	}
	if err := h.lexical.Add(ctx, ids, kept); err != nil {
		return 0, err
	}

	h.mu.Lock()
	for i, id := range ids {
		h.docs[id] = kept[i]
	}
	h.mu.Unlock()

	h.log.Info("articles_ingested", "count", len(ids))
	return len(ids), nil
}

// VectorSearch ranks stored articles by embedding similarity.
func (h *HybridIndex) VectorSearch(ctx context.Context, query string, limit int) ([]article.Ranked, error) {
	vec, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits := h.vector.search(vec, limit)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return rankedFromHits(hits, h.docs), nil
}

// LexicalSearch ranks stored articles by BM25 term relevance.
func (h *HybridIndex) LexicalSearch(ctx context.Context, query string, limit int) ([]article.Ranked, error) {
	hits, err := h.lexical.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]article.Ranked, 0, len(hits))
	for _, hit := range hits {
		a, ok := h.docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, article.Ranked{Article: a, Rank: len(out), Score: hit.Score})
	}
	return out, nil
}

// Name implements source.Adapter.
func (h *HybridIndex) Name() string { return localSourceName }

// Search implements source.Adapter: both rankings fused via RRF, then
// filtered and truncated, so the local index competes in the registry
// fan-out exactly like an external database.
func (h *HybridIndex) Search(ctx context.Context, query string, limit int, filters source.Filters) ([]article.Article, error) {
	vec, vecErr := h.VectorSearch(ctx, query, limit*2)
	lex, lexErr := h.LexicalSearch(ctx, query, limit*2)
	if vecErr != nil && lexErr != nil {
		return nil, vecErr
	}

	fused := h.fusion.Fuse(vec, lex)
	out := make([]article.Article, 0, limit)
	for _, f := range fused {
		if !filters.Match(&f.Article) {
			continue
		}
		out = append(out, f.Article)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Remove drops articles from every store.
func (h *HybridIndex) Remove(ids []string) error {
	h.vector.Remove(ids)
	if err := h.lexical.Remove(ids); err != nil {
		return err
	}
	h.mu.Lock()
	for _, id := range ids {
		delete(h.docs, id)
	}
	h.mu.Unlock()
	return nil
}

// Count returns the stored article count.
func (h *HybridIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.docs)
}

// Save persists the vector store and document map. The Bleve index
// writes through on every batch and needs no explicit save.
func (h *HybridIndex) Save() error {
	if h.dir == "" {
		return nil
	}
	if err := h.vector.Save(filepath.Join(h.dir, vectorFileName)); err != nil {
		return err
	}
	return h.saveDocs()
}

// Close persists state, closes the lexical index and releases the lock.
func (h *HybridIndex) Close() error {
	saveErr := h.Save()
	closeErr := h.lexical.Close()
	h.unlock()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

func (h *HybridIndex) unlock() {
	if h.lock != nil {
		_ = h.lock.Unlock()
	}
}

func (h *HybridIndex) saveDocs() error {
	tmp := filepath.Join(h.dir, docsFileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	h.mu.RLock()
	err = gob.NewEncoder(f).Encode(h.docs)
	h.mu.RUnlock()

	if err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if err := os.Rename(tmp, filepath.Join(h.dir, docsFileName)); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return nil
}

func (h *HybridIndex) loadDocs() error {
	f, err := os.Open(filepath.Join(h.dir, docsFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	defer f.Close()

	docs := make(map[string]article.Article)
	if err := gob.NewDecoder(f).Decode(&docs); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	h.mu.Lock()
	h.docs = docs
	h.mu.Unlock()
	return nil
}

// embeddingText concatenates the fields worth embedding: title plus
// abstract when present, title alone otherwise.
func embeddingText(a article.Article) string {
	switch {
	case a.Title != "" && a.Abstract != "":
		return a.Title + "\n" + a.Abstract
	case a.Title != "":
		return a.Title
	default:
		return a.Abstract
	}
}
