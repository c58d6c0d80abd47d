// Package fanout dispatches one search request to multiple provider
// adapters concurrently and joins the full outcome set. Every requested
// source produces exactly one outcome, success or not, so downstream
// fusion and telemetry always see the complete picture.
package fanout

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/fusemcp/internal/errors"
	"github.com/Aman-CERP/fusemcp/internal/provider"
)

// DefaultTimeout bounds a single provider call, including retries of
// that call.
const DefaultTimeout = 10 * time.Second

// Outcome is the result of one provider call within a fan-out.
type Outcome struct {
	Source   provider.ID
	Results  []provider.Result
	Latency  time.Duration
	Success  bool
	TimedOut bool
	Err      error
}

// Dispatcher fans a query out to provider adapters in parallel. Each
// provider gets its own circuit breaker so a flapping upstream is shed
// without touching the others.
type Dispatcher struct {
	registry *provider.Registry
	timeout  time.Duration
	retry    errors.RetryConfig
	logger   *slog.Logger

	mu       sync.Mutex
	breakers map[provider.ID]*errors.CircuitBreaker
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-provider call timeout.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithRetryConfig overrides the retry policy applied to each provider call.
func WithRetryConfig(cfg errors.RetryConfig) Option {
	return func(dp *Dispatcher) {
		dp.retry = cfg
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(dp *Dispatcher) {
		if logger != nil {
			dp.logger = logger
		}
	}
}

// New creates a Dispatcher over the given adapter registry.
func New(registry *provider.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		timeout:  DefaultTimeout,
		retry:    errors.DefaultRetryConfig(),
		logger:   slog.Default(),
		breakers: make(map[provider.ID]*errors.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) breaker(id provider.ID) *errors.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[id]
	if !ok {
		cb = errors.NewCircuitBreaker(string(id))
		d.breakers[id] = cb
	}
	return cb
}

// BreakerState reports the circuit state for a provider, for diagnostics.
func (d *Dispatcher) BreakerState(id provider.ID) errors.State {
	return d.breaker(id).State()
}

// Dispatch queries every requested source concurrently and blocks until
// all outcomes resolve. There is no early return: a slow provider is
// cut off by the per-call timeout, never by a sibling finishing first.
// Outcomes are returned in requested-source order regardless of
// completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, sources []provider.ID, perProviderLimit int) []Outcome {
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	for i, id := range sources {
		g.Go(func() error {
			outcomes[i] = d.callProvider(ctx, id, query, perProviderLimit)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// callProvider runs one provider call with its circuit breaker, retry
// policy, and timeout. The deadline covers all retry attempts together.
// Failures are contained in the returned Outcome.
func (d *Dispatcher) callProvider(ctx context.Context, id provider.ID, query string, limit int) Outcome {
	out := Outcome{Source: id}
	start := time.Now()

	adapter, ok := d.registry.Get(id)
	if !ok {
		out.Err = errors.New(errors.ErrCodeUnknownSource, "no adapter registered for source "+string(id), nil)
		return out
	}

	cb := d.breaker(id)
	if !cb.Allow() {
		out.Err = errors.New(errors.ErrCodeProviderUnavailable, "circuit open for source "+string(id), nil)
		out.Latency = time.Since(start)
		d.logger.Warn("provider call shed by circuit breaker", "source", id)
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	results, err := errors.RetryWithResult(callCtx, d.retry, func() ([]provider.Result, error) {
		return adapter.Search(callCtx, query, limit)
	})
	out.Latency = time.Since(start)

	if err != nil {
		// adapters may surface a raw deadline error instead of a coded one
		if stderrors.Is(err, context.DeadlineExceeded) && errors.GetCode(err) == "" {
			err = errors.New(errors.ErrCodeProviderTimeout, "provider call timed out", err)
		}
		cb.RecordFailure()
		out.Err = err
		out.TimedOut = errors.GetCode(err) == errors.ErrCodeProviderTimeout
		d.logger.Warn("provider call failed",
			"source", id,
			"latency_ms", out.Latency.Milliseconds(),
			"timeout", out.TimedOut,
			"error", err,
		)
		return out
	}

	cb.RecordSuccess()
	// adapters are asked for at most limit results, but an upstream may
	// ignore that; enforce the cap here too
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out.Results = results
	out.Success = true
	d.logger.Debug("provider call succeeded",
		"source", id,
		"results", len(results),
		"latency_ms", out.Latency.Milliseconds(),
	)
	return out
}

// Flatten concatenates successful outcomes into one result slice in
// outcome order, which downstream fusion relies on for deterministic
// tie-breaking.
func Flatten(outcomes []Outcome) []provider.Result {
	var all []provider.Result
	for _, o := range outcomes {
		if o.Success {
			all = append(all, o.Results...)
		}
	}
	return all
}

// Queried lists the sources that produced a successful outcome.
func Queried(outcomes []Outcome) []provider.ID {
	var ids []provider.ID
	for _, o := range outcomes {
		if o.Success {
			ids = append(ids, o.Source)
		}
	}
	return ids
}
