// Package provider defines the search provider abstraction for FuseMCP.
// Each provider adapter translates one third-party search API into the
// fixed Result shape before anything reaches the fusion engine.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ID identifies a search provider (e.g., "web", "news", "answer").
type ID string

// Well-known provider IDs. The registry is open-ended; these are the
// providers the default configuration ships with.
const (
	IDWeb    ID = "web"
	IDNews   ID = "news"
	IDAnswer ID = "answer"
)

// Result is a single raw search result from one provider.
// URL is the dedup key used by the fusion engine.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  ID     `json:"source"`
	RawRank int    `json:"raw_rank"` // 1-indexed position in the provider's own ranking
}

// Adapter is implemented by each third-party search backend client.
// Search returns the provider's ranked results for the query, capped at
// limit. Implementations must honor ctx cancellation and must validate
// the provider payload at this boundary: every returned Result carries
// the adapter's ID as Source and a 1-indexed RawRank.
type Adapter interface {
	// ID returns the provider identifier.
	ID() ID

	// Search executes a search against the backend.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// AdapterFunc adapts a plain function into an Adapter, mostly for tests.
type AdapterFunc struct {
	Id ID
	Fn func(ctx context.Context, query string, limit int) ([]Result, error)
}

func (a AdapterFunc) ID() ID { return a.Id }

func (a AdapterFunc) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return a.Fn(ctx, query, limit)
}

// Registry holds the set of available provider adapters.
// It is explicitly constructed and injected into the orchestrator,
// never a package-level singleton, so tests can swap in fakes.
type Registry struct {
	mu       sync.RWMutex
	adapters map[ID]Adapter
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[ID]Adapter)}
}

// Register adds an adapter to the registry.
// Returns an error on duplicate or empty IDs.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("nil adapter")
	}
	id := a.ID()
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("adapter has empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	r.adapters[id] = a
	return nil
}

// Get returns the adapter for the given provider ID.
func (r *Registry) Get(id ID) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// IDs returns all registered provider IDs in sorted order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
