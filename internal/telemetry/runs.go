// Package telemetry records one SearchRun per orchestrator invocation,
// with one child row per queried provider. Records are append-only and
// best-effort: a failed write is logged by the caller and never delays
// or fails the search response.
package telemetry

import (
	"time"
)

// SearchRun is the per-invocation record. Created exactly once per
// orchestrator call, cache hit or miss, and immutable after creation.
type SearchRun struct {
	ID                string    `json:"id"`
	Query             string    `json:"query"`
	Mode              string    `json:"mode"`
	SourcesRequested  []string  `json:"sourcesRequested"`
	SourcesQueried    []string  `json:"sourcesQueried"`
	TotalBeforeFusion int       `json:"totalBeforeFusion"`
	TotalResults      int       `json:"totalResults"`
	Reranked          bool      `json:"reranked"`
	CacheHit          bool      `json:"cacheHit"`
	TotalTimeMs       int64     `json:"totalTimeMs"`
	Timestamp         time.Time `json:"timestamp"`
	FusedResultIDs    []string  `json:"fusedResultIds,omitempty"`
}

// RunResult is one provider's contribution to a run. Owned by the
// parent SearchRun and written in the same transaction.
type RunResult struct {
	SearchRunID  string `json:"searchRunId"`
	Source       string `json:"source"`
	LatencyMs    int64  `json:"latencyMs"`
	ResultCount  int    `json:"resultCount"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// RunFilter narrows RecentRuns queries. Zero values match everything.
type RunFilter struct {
	Mode     string
	CacheHit *bool
}

// SourceStats is a point-in-time aggregate over a bounded sample of a
// provider's recent run results, not a running counter.
type SourceStats struct {
	Source       string  `json:"source"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	SuccessRate  int     `json:"successRate"` // integer percentage
	TotalResults int64   `json:"totalResults"`
	SampleSize   int     `json:"sampleSize"`
}
