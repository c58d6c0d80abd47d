package fusion

import "sort"

// topN bounds how many leading candidates a rerank pass may reorder.
const topN = 10

// Reranker reorders an already-fused result list using a richer signal
// than raw rank. Implementations must be deterministic for identical
// input and must not introduce or drop entries.
type Reranker interface {
	Name() string
	Rerank(results []FusedResult) []FusedResult
}

// NoOpReranker leaves the fused order untouched.
type NoOpReranker struct{}

func (NoOpReranker) Name() string { return "noop" }

func (NoOpReranker) Rerank(results []FusedResult) []FusedResult {
	return results
}

// SnippetReranker reorders the top candidates by snippet length, on the
// heuristic that providers returning substantive snippets had richer
// matches. Results beyond the top window keep their fused order, and
// equal-length snippets keep their relative order.
type SnippetReranker struct{}

func (SnippetReranker) Name() string { return "snippet-length" }

func (SnippetReranker) Rerank(results []FusedResult) []FusedResult {
	n := len(results)
	if n > topN {
		n = topN
	}
	head := results[:n]
	sort.SliceStable(head, func(i, j int) bool {
		return len(head[i].Snippet) > len(head[j].Snippet)
	})
	return results
}
