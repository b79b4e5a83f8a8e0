// Package index implements the local hybrid article index: an HNSW
// vector store over abstract embeddings plus a Bleve lexical index,
// queried independently by the controller and fused for the local
// source adapter facade.
package index

import (
	"bufio"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
)

// VectorConfig tunes the HNSW store.
type VectorConfig struct {
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	M          int `yaml:"m" json:"m"`
	EfSearch   int `yaml:"ef_search" json:"ef_search"`
}

// VectorStore is a pure-Go HNSW nearest-neighbor store keyed by article
// identity. IDs map to uint64 graph keys; removed IDs are lazily
// orphaned rather than deleted from the graph, which coder/hnsw does
// not handle reliably for the last node.
type VectorStore struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	cfg     VectorConfig
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// vectorMetadata is the gob-persisted ID mapping.
type vectorMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
	Config  VectorConfig
}

// NewVectorStore creates an empty vector store.
func NewVectorStore(cfg VectorConfig) *VectorStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &VectorStore{
		graph:  graph,
		cfg:    cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Add inserts or replaces vectors by ID.
func (s *VectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New(errors.ErrCodeInvalidInput, "ids and vectors length mismatch", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		if s.cfg.Dimensions > 0 && len(v) != s.cfg.Dimensions {
			return errors.New(errors.ErrCodeDimensionMismatch, "vector dimension mismatch", nil)
		}
	}

	for i, id := range ids {
		if existing, ok := s.idMap[id]; ok {
			// Lazy deletion: orphan the old key instead of touching the graph.
			delete(s.keyMap, existing)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, vectors[i]))
		s.idMap[id] = key
		s.keyMap[key] = id
	}
	return nil
}

// vectorHit is one nearest neighbor.
type vectorHit struct {
	ID    string
	Score float64
}

// search returns the k nearest IDs with cosine-similarity scores.
func (s *VectorStore) search(query []float32, k int) []vectorHit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph.Len() == 0 || k <= 0 {
		return nil
	}

	// Over-fetch to compensate for lazily deleted orphans.
	nodes := s.graph.Search(query, k+s.graph.Len()-len(s.idMap))

	hits := make([]vectorHit, 0, k)
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue
		}
		distance := s.graph.Distance(query, node.Value)
		hits = append(hits, vectorHit{ID: id, Score: 1 - float64(distance)})
		if len(hits) == k {
			break
		}
	}
	return hits
}

// Remove orphans IDs so they no longer appear in results.
func (s *VectorStore) Remove(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if key, ok := s.idMap[id]; ok {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
	}
}

// Count returns the number of live vectors.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Save persists the graph and ID mapping atomically (temp + rename).
func (s *VectorStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	w := bufio.NewWriter(f)
	if err := s.graph.Export(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	meta := vectorMetadata{IDMap: s.idMap, NextKey: s.nextKey, Config: s.cfg}
	mf, err := os.Create(path + ".meta")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	defer mf.Close()
	if err := gob.NewEncoder(mf).Encode(meta); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return nil
}

// Load restores a previously saved store. A missing file leaves the
// store empty; a partially written one is a corruption error.
func (s *VectorStore) Load(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	mf, err := os.Open(path + ".meta")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	defer mf.Close()

	var meta vectorMetadata
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}

	s.idMap = meta.IDMap
	s.nextKey = meta.NextKey
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		s.keyMap[key] = id
	}
	return nil
}

// rankedFromHits maps vector hits onto articles from the doc store.
func rankedFromHits(hits []vectorHit, docs map[string]article.Article) []article.Ranked {
	out := make([]article.Ranked, 0, len(hits))
	for _, h := range hits {
		a, ok := docs[h.ID]
		if !ok {
			continue
		}
		out = append(out, article.Ranked{Article: a, Rank: len(out), Score: h.Score})
	}
	return out
}
