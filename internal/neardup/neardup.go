// Package neardup removes near-duplicate pages from a batch of candidate
// links by comparing the token sets of their content.
package neardup

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/masahif/focuscrawl/internal/textproc"
)

// DefaultThreshold is the Jaccard similarity at which two pages are
// considered near-duplicates
const DefaultThreshold = 0.90

// DefaultConcurrency bounds concurrent token fetches per batch
const DefaultConcurrency = 4

// TokenSource returns the token set of the page at url. Content retrieval
// is supplied by the caller, so it can be cached or canned in tests.
type TokenSource func(ctx context.Context, url string) (textproc.TokenSet, error)

// Filter drops candidates whose content is near-identical to a candidate
// already retained
type Filter struct {
	threshold   float64
	concurrency int
	logger      *slog.Logger
}

// Option configures a Filter
type Option func(*Filter)

// WithConcurrency sets how many token fetches run at once
func WithConcurrency(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLogger sets the logger used for fetch failures
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a filter; a threshold outside (0, 1] selects DefaultThreshold
func New(threshold float64, opts ...Option) *Filter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	f := &Filter{
		threshold:   threshold,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the similarity threshold in use
func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Apply returns candidates with near-duplicates removed, preserving order.
// Token sets are fetched concurrently; a candidate whose content cannot be
// fetched gets an empty set and is therefore never considered similar.
// Batches of fewer than two candidates are returned unchanged.
func (f *Filter) Apply(ctx context.Context, candidates []string, source TokenSource) []string {
	if len(candidates) < 2 {
		return candidates
	}

	sets := f.collect(ctx, candidates, source)
	return Select(candidates, sets, f.threshold)
}

// collect fetches the token set of every candidate
func (f *Filter) collect(ctx context.Context, candidates []string, source TokenSource) []textproc.TokenSet {
	sets := make([]textproc.TokenSet, len(candidates))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, u := range candidates {
		g.Go(func() error {
			set, err := fetch(ctx, u, source)
			if err != nil {
				f.logger.Debug("Token fetch failed, treating as empty", "url", u, "error", err)
				set = textproc.TokenSet{}
			}
			// Each goroutine owns its own index
			sets[i] = set
			return nil
		})
	}

	// Goroutines never return an error
	_ = g.Wait()

	return sets
}

// fetch calls source, turning a panic into an error so one bad page cannot
// take the worker down
func fetch(ctx context.Context, url string, source TokenSource) (set textproc.TokenSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("token source panicked: %v", r)
		}
	}()
	return source(ctx, url)
}

// Select keeps candidates[i] unless its set is similar to the set of a
// candidate kept before it. sets must be parallel to candidates.
func Select(candidates []string, sets []textproc.TokenSet, threshold float64) []string {
	kept := make([]int, 0, len(candidates))

	for i := range candidates {
		duplicate := false
		for _, j := range kept {
			if Similar(sets[i], sets[j], threshold) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, i)
		}
	}

	result := make([]string, len(kept))
	for n, i := range kept {
		result[n] = candidates[i]
	}
	return result
}

// Similar reports whether two token sets reach the threshold. Two empty sets
// are never similar.
func Similar(a, b textproc.TokenSet, threshold float64) bool {
	sim, ok := textproc.Jaccard(a, b)
	return ok && sim >= threshold
}
