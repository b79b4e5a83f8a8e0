package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/embed"
	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/source"
)

// scriptedSource returns canned articles per call and records queries.
type scriptedSource struct {
	name string

	mu      sync.Mutex
	batches [][]article.Article
	err     error
	slow    time.Duration
	queries []string
	callIdx int
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Search(ctx context.Context, query string, limit int, filters source.Filters) ([]article.Article, error) {
	if s.slow > 0 {
		select {
		case <-time.After(s.slow):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if s.callIdx < len(s.batches) {
		b := s.batches[s.callIdx]
		s.callIdx++
		return b, nil
	}
	return []article.Article{}, nil
}

// p1Article scores into P1: recent, cited, full text, strong venue,
// title matching the test query.
func p1Article(n int) article.Article {
	return article.Article{
		DOI:           fmt.Sprintf("10.1/p1-%d", n),
		Source:        "fake",
		Title:         fmt.Sprintf("Federated Learning Privacy Study %d", n),
		Year:          2026,
		CitationCount: 600,
		FullText:      map[string]string{"methods": "..."},
		Format:        "imrad",
		Journal:       &article.JournalSignal{HIndex: 150, MeanCitedness: 15},
	}
}

// p2Article scores into P2: decent but no venue signal or full text.
func p2Article(n int) article.Article {
	return article.Article{
		DOI:           fmt.Sprintf("10.1/p2-%d", n),
		Source:        "fake",
		Title:         fmt.Sprintf("Federated Learning Privacy Note %d", n),
		Year:          2026,
		CitationCount: 600,
		PDFURL:        "https://example.org/pdf",
	}
}

func testController(t *testing.T, adapters []source.Adapter, opts ...ControllerOption) *Controller {
	t.Helper()
	entries := make([]source.Entry, len(adapters))
	for i, a := range adapters {
		entries[i] = source.Entry{Adapter: a, Priority: i, Enabled: true}
	}

	invoker := source.NewInvoker(source.WithRetryConfig(errors.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}))

	cfg := testScoringConfig()
	base := []ControllerOption{
		WithControllerConfig(ControllerConfig{TierDeadline: 2 * time.Second, MaxConcurrent: 4}),
	}
	return NewController(
		source.NewRegistry(entries...),
		invoker,
		NewScoringEngine(cfg),
		NewFusionEngine(0, FusionWeights{}),
		append(base, opts...)...,
	)
}

func testStrategy(t *testing.T, target int) *Strategy {
	t.Helper()
	s, err := NewStrategy(NewQueryExpander(), "federated learning privacy", target, source.Filters{}, "", DefaultStrategyConfig())
	require.NoError(t, err)
	return s
}

func TestRun_P1SatisfiesTarget(t *testing.T) {
	batch := make([]article.Article, 12)
	for i := range batch {
		batch[i] = p1Article(i)
	}
	src := &scriptedSource{name: "fake", batches: [][]article.Article{batch}}

	ctl := testController(t, []source.Adapter{src})
	result, err := ctl.Run(context.Background(), testStrategy(t, 10))
	require.NoError(t, err)

	assert.Len(t, result.Articles, 10)
	assert.Equal(t, 12, result.Stats.FoundPerTier[TierP1])
	assert.Equal(t, 10, result.Stats.Used)
	assert.Equal(t, 0, result.Stats.Shortfall)
	// P1 satisfied the target; no escalation queries went out.
	assert.Equal(t, []string{"federated learning privacy"}, src.queries)
}

func TestRun_EscalatesThroughTiersAndReportsShortfall(t *testing.T) {
	// 3 P1-grade on the first call, 5 P2-grade on later calls, then dry.
	p1 := make([]article.Article, 3)
	for i := range p1 {
		p1[i] = p1Article(i)
	}
	p2 := make([]article.Article, 5)
	for i := range p2 {
		p2[i] = p2Article(i)
	}
	src := &scriptedSource{name: "fake", batches: [][]article.Article{p1, p2}}

	var checkpoints []Checkpoint
	ctl := testController(t, []source.Adapter{src}, WithApproval(func(cp Checkpoint) bool {
		checkpoints = append(checkpoints, cp)
		return true
	}))

	result, err := ctl.Run(context.Background(), testStrategy(t, 10))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.FoundPerTier[TierP1])
	assert.Equal(t, 5, result.Stats.FoundPerTier[TierP2])
	assert.Equal(t, 8, result.Stats.Used)
	assert.Equal(t, 2, result.Stats.Shortfall)

	require.Len(t, checkpoints, 2)
	assert.Equal(t, TierP2, checkpoints[0].NextTier)
	assert.Equal(t, 7, checkpoints[0].Shortfall)
	assert.Equal(t, TierP3, checkpoints[1].NextTier)
	assert.Equal(t, 2, checkpoints[1].Shortfall)

	// P1 first, then P2, ordered best first within each tier.
	assert.Equal(t, article.PriorityP1, result.Articles[0].Priority)
	assert.Equal(t, article.PriorityP2, result.Articles[7].Priority)
}

func TestRun_DeclinedEscalationReturnsPartial(t *testing.T) {
	p1 := []article.Article{p1Article(0), p1Article(1)}
	src := &scriptedSource{name: "fake", batches: [][]article.Article{p1}}

	ctl := testController(t, []source.Adapter{src}, WithApproval(func(cp Checkpoint) bool {
		return false
	}))

	result, err := ctl.Run(context.Background(), testStrategy(t, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Used)
	assert.Equal(t, 8, result.Stats.Shortfall)
}

func TestRun_FailingSourceDegradesToZero(t *testing.T) {
	good := &scriptedSource{name: "good", batches: [][]article.Article{{p1Article(0)}}}
	bad := &scriptedSource{name: "bad", err: errors.New(errors.ErrCodeSourceFailed, "broken", nil)}

	ctl := testController(t, []source.Adapter{good, bad}, WithApproval(func(Checkpoint) bool {
		return false
	}))

	result, err := ctl.Run(context.Background(), testStrategy(t, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Used)
	assert.Contains(t, result.Stats.FailedSources, "bad")
	assert.Equal(t, 1, result.Stats.PerSource["good"])
}

func TestRun_ExhaustedRunIsNotAnError(t *testing.T) {
	empty := &scriptedSource{name: "dry"}

	ctl := testController(t, []source.Adapter{empty})
	result, err := ctl.Run(context.Background(), testStrategy(t, 10))
	require.NoError(t, err)
	assert.Empty(t, result.Articles)
	assert.Equal(t, 10, result.Stats.Shortfall)
}

func TestRun_InvalidStrategyRejected(t *testing.T) {
	ctl := testController(t, []source.Adapter{&scriptedSource{name: "x"}})

	_, err := ctl.Run(context.Background(), &Strategy{Target: 5})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryEmpty, errors.GetCode(err))
}

func TestRun_ProgressStatesInOrder(t *testing.T) {
	src := &scriptedSource{name: "dry"}

	var mu sync.Mutex
	var states []string
	ctl := testController(t, []source.Adapter{src}, WithProgressSink(func(p Progress) {
		mu.Lock()
		states = append(states, p.State)
		mu.Unlock()
	}))

	_, err := ctl.Run(context.Background(), testStrategy(t, 5))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"P1_SEARCH", "P1_EVALUATE",
		"AWAIT_CONTINUE_P2", "P2_SEARCH", "P2_EVALUATE",
		"AWAIT_CONTINUE_P3", "P3_SEARCH", "P3_EVALUATE",
		"DONE",
	}, states)
}

func TestRun_PanickingSinkDoesNotFailRun(t *testing.T) {
	src := &scriptedSource{name: "fake", batches: [][]article.Article{{p1Article(0)}}}

	ctl := testController(t, []source.Adapter{src}, WithProgressSink(func(Progress) {
		panic("sink bug")
	}), WithApproval(func(Checkpoint) bool { return false }))

	result, err := ctl.Run(context.Background(), testStrategy(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Used)
}

func TestRun_CrossTierDedupNeverDuplicates(t *testing.T) {
	// The same P2-grade article surfaces at every tier.
	same := p2Article(0)
	src := &scriptedSource{name: "fake", batches: [][]article.Article{{same}, {same}, {same}}}

	ctl := testController(t, []source.Adapter{src})
	result, err := ctl.Run(context.Background(), testStrategy(t, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Used)
}

func TestRun_SlowSourceBoundedByTierDeadline(t *testing.T) {
	fast := &scriptedSource{name: "fast", batches: [][]article.Article{{p1Article(0)}}}
	slow := &scriptedSource{name: "slow", slow: 5 * time.Second}

	ctl := testController(t, []source.Adapter{fast, slow},
		WithControllerConfig(ControllerConfig{TierDeadline: 100 * time.Millisecond, MaxConcurrent: 4}),
		WithApproval(func(Checkpoint) bool { return false }))

	start := time.Now()
	result, err := ctl.Run(context.Background(), testStrategy(t, 2))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, result.Stats.Used)
	assert.Contains(t, result.Stats.FailedSources, "slow")
}

func TestRun_CacheHitShortCircuits(t *testing.T) {
	batch := []article.Article{p1Article(0), p1Article(1)}
	src := &scriptedSource{name: "fake", batches: [][]article.Article{batch}}

	cacheCfg := DefaultCacheConfig()
	cacheCfg.SweepInterval = 0
	cache := NewSemanticCache(embed.NewStaticEmbedder(), cacheCfg, nil)
	t.Cleanup(cache.Close)

	ctl := testController(t, []source.Adapter{src},
		WithCache(cache),
		WithApproval(func(Checkpoint) bool { return false }))

	first, err := ctl.Run(context.Background(), testStrategy(t, 2))
	require.NoError(t, err)
	assert.False(t, first.Stats.CacheHit)
	callsAfterFirst := len(src.queries)

	second, err := ctl.Run(context.Background(), testStrategy(t, 2))
	require.NoError(t, err)
	assert.True(t, second.Stats.CacheHit)
	assert.Equal(t, first.Stats.Used, second.Stats.Used)
	// No new source traffic on the hit.
	assert.Equal(t, callsAfterFirst, len(src.queries))
}

func TestRun_LocalIndexResultsFusedIn(t *testing.T) {
	src := &scriptedSource{name: "dry"}

	local := p1Article(42)
	local.Source = "local"
	vector := vectorIndexFunc(func(ctx context.Context, q string, n int) ([]article.Ranked, error) {
		return []article.Ranked{{Article: local, Rank: 0, Score: 0.9}}, nil
	})
	lexical := lexicalIndexFunc(func(ctx context.Context, q string, n int) ([]article.Ranked, error) {
		return []article.Ranked{{Article: local, Rank: 0, Score: 10}}, nil
	})

	ctl := testController(t, []source.Adapter{src},
		WithLocalIndexes(vector, lexical),
		WithApproval(func(Checkpoint) bool { return false }))

	result, err := ctl.Run(context.Background(), testStrategy(t, 5))
	require.NoError(t, err)
	require.Equal(t, 1, result.Stats.Used)
	assert.Equal(t, "local", result.Articles[0].Source)
	assert.Positive(t, result.Stats.PerSource["local"])
}

type vectorIndexFunc func(context.Context, string, int) ([]article.Ranked, error)

func (f vectorIndexFunc) VectorSearch(ctx context.Context, q string, n int) ([]article.Ranked, error) {
	return f(ctx, q, n)
}

type lexicalIndexFunc func(context.Context, string, int) ([]article.Ranked, error)

func (f lexicalIndexFunc) LexicalSearch(ctx context.Context, q string, n int) ([]article.Ranked, error) {
	return f(ctx, q, n)
}
