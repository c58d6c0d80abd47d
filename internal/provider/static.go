package provider

import (
	"context"
	"time"
)

// StaticAdapter serves a fixed result set. It backs offline demos and is
// the standard test double for the dispatcher and orchestrator.
type StaticAdapter struct {
	id      ID
	results []Result
	delay   time.Duration
	err     error
}

var _ Adapter = (*StaticAdapter)(nil)

// StaticOption configures a StaticAdapter.
type StaticOption func(*StaticAdapter)

// WithDelay makes every Search call sleep for d before returning,
// simulating a slow backend.
func WithDelay(d time.Duration) StaticOption {
	return func(a *StaticAdapter) {
		a.delay = d
	}
}

// WithError makes every Search call fail with err.
func WithError(err error) StaticOption {
	return func(a *StaticAdapter) {
		a.err = err
	}
}

// NewStaticAdapter creates an adapter that returns the given results.
// Source and RawRank on each result are normalized at construction so
// callers can pass bare Title/URL/Snippet fixtures.
func NewStaticAdapter(id ID, results []Result, opts ...StaticOption) *StaticAdapter {
	normalized := make([]Result, len(results))
	for i, r := range results {
		r.Source = id
		if r.RawRank == 0 {
			r.RawRank = i + 1
		}
		normalized[i] = r
	}

	a := &StaticAdapter{id: id, results: normalized}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the provider identifier.
func (a *StaticAdapter) ID() ID {
	return a.id
}

// Search returns the configured results, truncated to limit.
func (a *StaticAdapter) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if a.err != nil {
		return nil, a.err
	}

	results := a.results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]Result, len(results))
	copy(out, results)
	return out, nil
}
