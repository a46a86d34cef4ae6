package filter

import (
	"context"
	"maps"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/aghpb/aghpb"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of filters evaluated at once
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// ConcurrentEvaluator runs several filters over the same search result
type ConcurrentEvaluator struct {
	workerCount int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EvaluateBatch applies every filter to result and returns the matches keyed
// by filter name. Evaluation stops early if ctx is cancelled.
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, result aghpb.SearchResult) (map[string]aghpb.SearchResult, error) {
	results := make(map[string]aghpb.SearchResult, len(filters))
	if len(filters) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for name, filter := range filters {
		name, filter := name, filter
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			matches := Apply(filter, result)

			mu.Lock()
			results[name] = matches
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// EvaluateAll applies every registered preset to result
func (m *Manager) EvaluateAll(ctx context.Context, result aghpb.SearchResult, opts ...EvaluatorOption) (map[string]aghpb.SearchResult, error) {
	m.mu.RLock()
	filters := maps.Clone(m.filters)
	m.mu.RUnlock()

	return NewConcurrentEvaluator(opts...).EvaluateBatch(ctx, filters, result)
}
