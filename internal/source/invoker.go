package source

import (
	"context"
	"log/slog"
	"sync"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
)

// Invoker wraps adapter calls with retry-with-backoff and a per-source
// circuit breaker. Each source owns an independent breaker, so one
// exhausted source never blocks another source's fan-out.
type Invoker struct {
	retry       errors.RetryConfig
	breakerOpts []errors.CircuitBreakerOption

	mu       sync.Mutex
	breakers map[string]*errors.CircuitBreaker
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg errors.RetryConfig) InvokerOption {
	return func(iv *Invoker) {
		iv.retry = cfg
	}
}

// WithBreakerOptions sets the options applied to every per-source breaker.
func WithBreakerOptions(opts ...errors.CircuitBreakerOption) InvokerOption {
	return func(iv *Invoker) {
		iv.breakerOpts = opts
	}
}

// NewInvoker creates an invoker with default retry and breaker settings.
func NewInvoker(opts ...InvokerOption) *Invoker {
	iv := &Invoker{
		retry:    errors.DefaultRetryConfig(),
		breakers: make(map[string]*errors.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

// Search calls the adapter through its breaker with the retry policy.
//
// Each attempt passes through the breaker so consecutive failures are
// counted even while retrying. A breaker-open rejection is not
// retryable and fails fast without touching the source.
func (iv *Invoker) Search(ctx context.Context, a Adapter, query string, limit int, filters Filters) ([]article.Article, error) {
	cb := iv.breaker(a.Name())

	results, err := errors.RetryWithResult(ctx, iv.retry, func() ([]article.Article, error) {
		return errors.ExecuteWithResult(cb, func() ([]article.Article, error) {
			articles, err := a.Search(ctx, query, limit, filters)
			if err != nil {
				return nil, errors.ClassifySourceError(a.Name(), err)
			}
			return articles, nil
		})
	})
	if err != nil {
		slog.Debug("source_search_failed",
			slog.String("source", a.Name()),
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil, err
	}

	if results == nil {
		results = []article.Article{}
	}
	return results, nil
}

// BreakerState returns the breaker state for a source, or StateClosed if
// the source has never been called.
func (iv *Invoker) BreakerState(name string) errors.State {
	iv.mu.Lock()
	cb, ok := iv.breakers[name]
	iv.mu.Unlock()

	if !ok {
		return errors.StateClosed
	}
	return cb.State()
}

// breaker returns the breaker for a source, creating it on first use.
func (iv *Invoker) breaker(name string) *errors.CircuitBreaker {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if cb, ok := iv.breakers[name]; ok {
		return cb
	}
	cb := errors.NewCircuitBreaker(name, iv.breakerOpts...)
	iv.breakers[name] = cb
	return cb
}
