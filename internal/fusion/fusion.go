package fusion

import (
	"sort"

	"github.com/Aman-CERP/fusemcp/internal/provider"
)

const (
	// rankConstant dampens the influence of raw rank differences, the
	// same smoothing constant used in reciprocal rank fusion.
	rankConstant = 60

	// agreementBonus is added per contributing source beyond the first.
	// Independent providers surfacing the same URL is a stronger signal
	// than one provider's rank position.
	agreementBonus = 0.05
)

// FusedResult is one deduplicated, scored result in the final response.
type FusedResult struct {
	Title               string        `json:"title"`
	URL                 string        `json:"url"`
	Snippet             string        `json:"snippet"`
	Score               float64       `json:"score"`
	ContributingSources []provider.ID `json:"contributingSources"`
}

// Output is the result of a fusion pass.
type Output struct {
	Results           []FusedResult
	TotalBeforeFusion int
	Reranked          bool
}

// Engine deduplicates, merges, scores, and orders the union of
// per-provider results into one ranked list.
type Engine struct {
	reranker Reranker
}

// NewEngine creates a fusion engine. A nil reranker disables the
// secondary rerank pass regardless of what the caller requests.
func NewEngine(reranker Reranker) *Engine {
	return &Engine{reranker: reranker}
}

// candidate accumulates per-URL state during the merge.
type candidate struct {
	result     FusedResult
	bestRank   int
	firstSeen  int
	sourceSeen map[provider.ID]bool
}

// Fuse merges results from all providers into one deduplicated list,
// sorted by score descending and capped at maxTotal. Input order must
// be deterministic (requested-source order, then provider rank); the
// output then depends only on the outcome set, never on completion
// order. The rerank pass runs only when requested and a reranker is
// configured.
func (e *Engine) Fuse(results []provider.Result, rerank bool, maxTotal int) Output {
	out := Output{TotalBeforeFusion: len(results)}

	byURL := make(map[string]*candidate)
	var order []*candidate
	for i, r := range results {
		key := NormalizeURL(r.URL)
		c, ok := byURL[key]
		if !ok {
			c = &candidate{
				result: FusedResult{
					Title:   r.Title,
					URL:     r.URL,
					Snippet: r.Snippet,
				},
				bestRank:   r.RawRank,
				firstSeen:  i,
				sourceSeen: map[provider.ID]bool{},
			}
			byURL[key] = c
			order = append(order, c)
		}
		// a later contributor with a better raw rank wins the
		// title/snippet for the merged entry
		if ok && r.RawRank < c.bestRank {
			c.bestRank = r.RawRank
			c.result.Title = r.Title
			c.result.URL = r.URL
			c.result.Snippet = r.Snippet
		}
		c.sourceSeen[r.Source] = true
	}

	for _, c := range order {
		c.result.ContributingSources = sortedSources(c.sourceSeen)
		c.result.Score = scoreOf(c.bestRank, len(c.sourceSeen))
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		if len(a.result.ContributingSources) != len(b.result.ContributingSources) {
			return len(a.result.ContributingSources) > len(b.result.ContributingSources)
		}
		return a.firstSeen < b.firstSeen
	})

	fused := make([]FusedResult, 0, len(order))
	for _, c := range order {
		fused = append(fused, c.result)
	}

	if rerank && e.reranker != nil && len(fused) > 1 {
		fused = rescore(e.reranker.Rerank(fused))
		out.Reranked = true
	}

	if maxTotal > 0 && len(fused) > maxTotal {
		fused = fused[:maxTotal]
	}
	out.Results = fused
	return out
}

// scoreOf inverts best rank into a bounded score and rewards agreement
// across providers.
func scoreOf(bestRank, sources int) float64 {
	return 1.0/float64(rankConstant+bestRank) + agreementBonus*float64(sources-1)
}

// rescore reassigns scores after a rerank pass so the list stays
// non-increasing: the original score values, sorted descending, are
// applied positionally to the reordered results.
func rescore(results []FusedResult) []FusedResult {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	for i := range results {
		results[i].Score = scores[i]
	}
	return results
}

func sortedSources(seen map[provider.ID]bool) []provider.ID {
	ids := make([]provider.ID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
