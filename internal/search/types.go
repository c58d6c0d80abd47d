// Package search is the fusion orchestrator: it checks the cache,
// fans the query out to providers, fuses the outcomes, and records one
// telemetry run per invocation.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/fusemcp/internal/errors"
	"github.com/Aman-CERP/fusemcp/internal/fusion"
	"github.com/Aman-CERP/fusemcp/internal/provider"
)

// Mode is the search policy bundle. TTL, rerank, and the per-provider
// result cap are a pure function of mode, never mutated per request.
type Mode string

const (
	ModeFast          Mode = "fast"
	ModeBalanced      Mode = "balanced"
	ModeComprehensive Mode = "comprehensive"
)

// DefaultMode is used when a caller omits the mode.
const DefaultMode = ModeBalanced

// ParseMode validates a mode string. Empty input maps to DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeFast:
		return ModeFast, nil
	case ModeBalanced:
		return ModeBalanced, nil
	case ModeComprehensive:
		return ModeComprehensive, nil
	default:
		return "", errors.New(errors.ErrCodeUnknownMode,
			fmt.Sprintf("unknown mode %q (want fast, balanced, or comprehensive)", s), nil)
	}
}

// TTL is how long a fused response for this mode stays cached.
func (m Mode) TTL() time.Duration {
	if m == ModeFast {
		return 5 * time.Minute
	}
	return 15 * time.Minute
}

// Rerank reports whether the secondary rerank pass runs for this mode.
func (m Mode) Rerank() bool {
	return m != ModeFast
}

// PerProviderCap bounds how many results each provider may contribute,
// keeping fusion cost proportional to mode depth.
func (m Mode) PerProviderCap() int {
	switch m {
	case ModeFast:
		return 5
	case ModeComprehensive:
		return 10
	default:
		return 8
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeFast, ModeBalanced, ModeComprehensive:
		return true
	}
	return false
}

// Request is one fusion search invocation. The cache fingerprint is
// derived from it after Validate normalizes the source set.
type Request struct {
	Query     string        `json:"query"`
	Mode      Mode          `json:"mode"`
	Sources   []provider.ID `json:"sources"`
	MaxTotal  int           `json:"maxTotal"`
	SkipCache bool          `json:"skipCache,omitempty"`
}

// Validate rejects malformed requests before any work is performed.
// These are the only errors the orchestrator surfaces to callers.
// Sources are a set: duplicates are dropped in place, keeping first
// appearance order, so each provider is dispatched and recorded once.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New(errors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if len(r.Sources) == 0 {
		return errors.New(errors.ErrCodeNoSources, "at least one source is required", nil)
	}
	r.Sources = dedupSources(r.Sources)
	if r.MaxTotal <= 0 {
		return errors.New(errors.ErrCodeInvalidLimit,
			fmt.Sprintf("maxTotal must be positive, got %d", r.MaxTotal), nil)
	}
	if !r.Mode.Valid() {
		return errors.New(errors.ErrCodeUnknownMode,
			fmt.Sprintf("unknown mode %q", r.Mode), nil)
	}
	return nil
}

func dedupSources(sources []provider.ID) []provider.ID {
	seen := make(map[provider.ID]struct{}, len(sources))
	out := sources[:0]
	for _, id := range sources {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Response is the fused search result returned to callers.
type Response struct {
	Results           []fusion.FusedResult `json:"results"`
	SourcesQueried    []provider.ID        `json:"sourcesQueried"`
	TotalBeforeFusion int                  `json:"totalBeforeFusion"`
	Reranked          bool                 `json:"reranked"`
	CacheHit          bool                 `json:"cacheHit"`
	TotalTimeMs       int64                `json:"totalTimeMs"`
}
