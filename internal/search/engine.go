package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/fusemcp/internal/cache"
	"github.com/Aman-CERP/fusemcp/internal/fanout"
	"github.com/Aman-CERP/fusemcp/internal/fusion"
	"github.com/Aman-CERP/fusemcp/internal/provider"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
)

// Cache is the slice of the cache store the orchestrator needs.
type Cache interface {
	Get(fingerprint string) (*cache.Entry, bool, error)
	Put(fingerprint string, payload []byte, ttl time.Duration) error
	RecordHit(fingerprint string) error
}

// Dispatcher fans a query out to providers and joins all outcomes.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string, sources []provider.ID, perProviderLimit int) []fanout.Outcome
}

// RunRecorder persists one telemetry run per invocation.
type RunRecorder interface {
	PersistRun(run *telemetry.SearchRun, results []telemetry.RunResult) (string, error)
}

// Engine orchestrates one fusion search: cache check, concurrent
// dispatch, fusion, cache write, telemetry. Only request validation
// errors surface to the caller; provider, cache, and telemetry
// failures all degrade into a best-effort response.
type Engine struct {
	dispatcher Dispatcher
	fuser      *fusion.Engine
	cache      Cache
	runs       RunRecorder
	logger     *slog.Logger
}

// EngineOption configures the orchestrator.
type EngineOption func(*Engine)

// WithCache enables the TTL response cache.
func WithCache(c Cache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithRunRecorder enables per-invocation telemetry.
func WithRunRecorder(r RunRecorder) EngineOption {
	return func(e *Engine) {
		e.runs = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates the orchestrator. Dispatcher and fuser are
// required; cache and telemetry are optional and degrade to no-ops.
func NewEngine(dispatcher Dispatcher, fuser *fusion.Engine, opts ...EngineOption) (*Engine, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if fuser == nil {
		return nil, fmt.Errorf("fusion engine is required")
	}

	e := &Engine{
		dispatcher: dispatcher,
		fuser:      fuser,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search runs one fusion search invocation. Exactly one telemetry run
// is recorded per call, cache hit or miss.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	fp := cache.Fingerprint(req.Query, string(req.Mode), sourceStrings(req.Sources))

	if !req.SkipCache {
		if resp, ok := e.readCache(fp); ok {
			resp.CacheHit = true
			resp.TotalTimeMs = time.Since(start).Milliseconds()
			e.recordRun(req, resp, nil)
			return resp, nil
		}
	}

	outcomes := e.dispatcher.Dispatch(ctx, req.Query, req.Sources, req.Mode.PerProviderCap())
	fused := e.fuser.Fuse(fanout.Flatten(outcomes), req.Mode.Rerank(), req.MaxTotal)

	resp := &Response{
		Results:           fused.Results,
		SourcesQueried:    fanout.Queried(outcomes),
		TotalBeforeFusion: fused.TotalBeforeFusion,
		Reranked:          fused.Reranked,
		TotalTimeMs:       time.Since(start).Milliseconds(),
	}

	e.writeCache(fp, resp, req.Mode.TTL())
	e.recordRun(req, resp, outcomes)

	e.logger.Debug("fusion search completed",
		"query", req.Query,
		"mode", req.Mode,
		"sources_queried", len(resp.SourcesQueried),
		"results", len(resp.Results),
		"total_time_ms", resp.TotalTimeMs,
	)
	return resp, nil
}

// readCache returns the cached response for fp if present and fresh.
// Any cache failure is a forced miss; the cache is a performance
// optimization, never a correctness dependency.
func (e *Engine) readCache(fp string) (*Response, bool) {
	if e.cache == nil {
		return nil, false
	}

	entry, ok, err := e.cache.Get(fp)
	if err != nil {
		e.logger.Warn("cache read failed, treating as miss", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(entry.Payload, &resp); err != nil {
		e.logger.Warn("cache payload undecodable, treating as miss", "error", err)
		return nil, false
	}

	if err := e.cache.RecordHit(fp); err != nil {
		e.logger.Warn("cache hit count update failed", "error", err)
	}
	return &resp, true
}

func (e *Engine) writeCache(fp string, resp *Response, ttl time.Duration) {
	if e.cache == nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		e.logger.Warn("cache payload encoding failed", "error", err)
		return
	}
	if err := e.cache.Put(fp, payload, ttl); err != nil {
		e.logger.Warn("cache write failed", "error", err)
	}
}

// recordRun persists the telemetry record for this invocation.
// Best-effort: failures are logged and swallowed, never surfaced.
func (e *Engine) recordRun(req Request, resp *Response, outcomes []fanout.Outcome) {
	if e.runs == nil {
		return
	}

	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.URL)
	}

	run := &telemetry.SearchRun{
		Query:             req.Query,
		Mode:              string(req.Mode),
		SourcesRequested:  sourceStrings(req.Sources),
		SourcesQueried:    sourceStrings(resp.SourcesQueried),
		TotalBeforeFusion: resp.TotalBeforeFusion,
		TotalResults:      len(resp.Results),
		Reranked:          resp.Reranked,
		CacheHit:          resp.CacheHit,
		TotalTimeMs:       resp.TotalTimeMs,
		FusedResultIDs:    ids,
	}

	children := make([]telemetry.RunResult, 0, len(outcomes))
	for _, o := range outcomes {
		child := telemetry.RunResult{
			Source:      string(o.Source),
			LatencyMs:   o.Latency.Milliseconds(),
			ResultCount: len(o.Results),
			Success:     o.Success,
		}
		if o.Err != nil {
			child.ErrorMessage = o.Err.Error()
			if o.TimedOut {
				child.ErrorMessage = "timeout"
			}
		}
		children = append(children, child)
	}

	if _, err := e.runs.PersistRun(run, children); err != nil {
		e.logger.Warn("telemetry write failed", "error", err)
	}
}

func sourceStrings(ids []provider.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
