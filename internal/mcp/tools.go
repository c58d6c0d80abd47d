package mcp

// FusionSearchInput defines the input schema for the fusion_search tool.
type FusionSearchInput struct {
	Query      string   `json:"query" jsonschema:"the search query to execute"`
	Mode       string   `json:"mode,omitempty" jsonschema:"search mode: fast, balanced, or comprehensive, default balanced"`
	Sources    []string `json:"sources,omitempty" jsonschema:"providers to query (web, news, answer), default all enabled providers"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"maximum number of fused results, default 10"`
	SkipCache  bool     `json:"skip_cache,omitempty" jsonschema:"bypass the response cache and force fresh provider calls"`
}

// FusionSearchOutput defines the output schema for the fusion_search tool.
type FusionSearchOutput struct {
	Results           []ResultOutput `json:"results" jsonschema:"fused results sorted by score descending"`
	SourcesQueried    []string       `json:"sources_queried" jsonschema:"providers that answered successfully"`
	TotalBeforeFusion int            `json:"total_before_fusion" jsonschema:"raw result count before deduplication"`
	Reranked          bool           `json:"reranked" jsonschema:"whether the secondary rerank pass ran"`
	CacheHit          bool           `json:"cache_hit" jsonschema:"whether the response came from cache"`
	TotalTimeMs       int64          `json:"total_time_ms" jsonschema:"end-to-end processing time in milliseconds"`
}

// ResultOutput defines a single fused result.
type ResultOutput struct {
	Title               string   `json:"title" jsonschema:"result title from the best-ranking provider"`
	URL                 string   `json:"url" jsonschema:"result URL, unique within the list"`
	Snippet             string   `json:"snippet,omitempty" jsonschema:"content snippet from the best-ranking provider"`
	Score               float64  `json:"score" jsonschema:"fused relevance score"`
	ContributingSources []string `json:"contributing_sources" jsonschema:"providers that returned this URL"`
}

// QuickSearchInput defines the input schema for the quick_search tool.
type QuickSearchInput struct {
	Query      string `json:"query" jsonschema:"the search query to execute"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, default 5"`
}

// QuickSearchOutput defines the output schema for the quick_search tool.
type QuickSearchOutput struct {
	Results []ResultOutput `json:"results" jsonschema:"fused results sorted by score descending"`
}

// RecentRunsInput defines the input schema for the recent_runs tool.
type RecentRunsInput struct {
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of runs to return, default 10"`
	Mode  string `json:"mode,omitempty" jsonschema:"filter by search mode: fast, balanced, or comprehensive"`
}

// RunOutput defines one recorded search run.
type RunOutput struct {
	ID                string `json:"id" jsonschema:"run identifier"`
	Query             string `json:"query" jsonschema:"the query that was searched"`
	Mode              string `json:"mode" jsonschema:"search mode used"`
	TotalResults      int    `json:"total_results" jsonschema:"fused result count"`
	TotalBeforeFusion int    `json:"total_before_fusion" jsonschema:"raw result count before deduplication"`
	CacheHit          bool   `json:"cache_hit" jsonschema:"whether the response came from cache"`
	Reranked          bool   `json:"reranked" jsonschema:"whether reranking ran"`
	TotalTimeMs       int64  `json:"total_time_ms" jsonschema:"end-to-end processing time in milliseconds"`
	Timestamp         string `json:"timestamp" jsonschema:"run creation time, RFC 3339"`
}

// RecentRunsOutput defines the output schema for the recent_runs tool.
type RecentRunsOutput struct {
	Runs []RunOutput `json:"runs" jsonschema:"recent search runs, newest first"`
}

// SourceAnalyticsInput defines the input schema for the source_analytics tool.
type SourceAnalyticsInput struct {
	Source     string `json:"source,omitempty" jsonschema:"narrow to one provider (web, news, answer)"`
	SinceHours int    `json:"since_hours,omitempty" jsonschema:"aggregate over the last N hours, default 24"`
	Limit      int    `json:"limit,omitempty" jsonschema:"sample size cap, default 100"`
}

// SourceStatsOutput defines aggregated stats for one provider.
type SourceStatsOutput struct {
	Source       string  `json:"source" jsonschema:"provider identifier"`
	AvgLatencyMs float64 `json:"avg_latency_ms" jsonschema:"mean call latency over the sample"`
	SuccessRate  int     `json:"success_rate" jsonschema:"successful calls as an integer percentage"`
	TotalResults int64   `json:"total_results" jsonschema:"results returned over the sample"`
	SampleSize   int     `json:"sample_size" jsonschema:"number of calls in the sample"`
}

// SourceAnalyticsOutput defines the output schema for the source_analytics tool.
type SourceAnalyticsOutput struct {
	Sources []SourceStatsOutput `json:"sources" jsonschema:"per-provider aggregates"`
}
