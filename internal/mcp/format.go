package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/fusemcp/internal/search"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
)

// FormatSearchResponse renders a fused response as markdown for MCP
// clients that prefer text content over structured output.
func FormatSearchResponse(query string, resp *search.Response) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Search Results for %q\n\n", query)

	if len(resp.Results) == 0 {
		b.WriteString("No results found.\n")
	}
	for i, r := range resp.Results {
		sources := make([]string, len(r.ContributingSources))
		for j, s := range r.ContributingSources {
			sources[j] = string(s)
		}
		fmt.Fprintf(&b, "### %d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "%s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "> %s\n", r.Snippet)
		}
		fmt.Fprintf(&b, "*score %.4f, via %s*\n\n", r.Score, strings.Join(sources, ", "))
	}

	fmt.Fprintf(&b, "---\n%d results fused from %d raw", len(resp.Results), resp.TotalBeforeFusion)
	if resp.CacheHit {
		b.WriteString(" (cached)")
	}
	fmt.Fprintf(&b, " in %dms\n", resp.TotalTimeMs)
	return b.String()
}

// FormatRuns renders recent search runs as a markdown table.
func FormatRuns(runs []telemetry.SearchRun) string {
	if len(runs) == 0 {
		return "No search runs recorded yet.\n"
	}

	var b strings.Builder
	b.WriteString("| Time | Query | Mode | Results | Cache | Duration |\n")
	b.WriteString("|------|-------|------|---------|-------|----------|\n")
	for _, r := range runs {
		cache := "miss"
		if r.CacheHit {
			cache = "hit"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %dms |\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			truncate(r.Query, 40), r.Mode, r.TotalResults, cache, r.TotalTimeMs)
	}
	return b.String()
}

// FormatSourceStats renders per-provider analytics as a markdown table.
func FormatSourceStats(stats []SourceStatsOutput) string {
	if len(stats) == 0 {
		return "No provider activity in the selected window.\n"
	}

	var b strings.Builder
	b.WriteString("| Source | Avg Latency | Success | Results | Sample |\n")
	b.WriteString("|--------|-------------|---------|---------|--------|\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "| %s | %.0fms | %d%% | %d | %d |\n",
			s.Source, s.AvgLatencyMs, s.SuccessRate, s.TotalResults, s.SampleSize)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
