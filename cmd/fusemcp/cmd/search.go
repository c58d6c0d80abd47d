package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fusemcp/internal/logging"
	"github.com/Aman-CERP/fusemcp/internal/output"
	"github.com/Aman-CERP/fusemcp/internal/provider"
	"github.com/Aman-CERP/fusemcp/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode    string
	sources []string
	limit   int
	format  string // "text", "json"
	noCache bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot fusion search",
		Long: `Run a fusion search from the command line.

The query is fanned out to the configured providers in parallel,
results are deduplicated by URL, and URLs returned by several
providers rank higher.

Examples:
  fusemcp search "golang concurrency patterns"
  fusemcp search "release notes" --mode fast --limit 5
  fusemcp search "sqlite wal" --source web --source news
  fusemcp search "mcp protocol" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearchCmd(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Search mode: fast, balanced, comprehensive")
	cmd.Flags().StringSliceVarP(&opts.sources, "source", "s", nil, "Provider to query (repeatable; default all enabled)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of fused results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the response cache")

	return cmd
}

func runSearchCmd(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := newApp(".", logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	mode, err := search.ParseMode(firstNonEmpty(opts.mode, a.cfg.Search.DefaultMode))
	if err != nil {
		return err
	}

	sources := a.defaultSources()
	if len(opts.sources) > 0 {
		sources = make([]provider.ID, 0, len(opts.sources))
		for _, s := range opts.sources {
			sources = append(sources, provider.ID(s))
		}
	}

	limit := opts.limit
	if limit <= 0 {
		limit = a.cfg.Search.MaxTotal
	}

	resp, err := a.engine.Search(ctx, search.Request{
		Query:     query,
		Mode:      mode,
		Sources:   sources,
		MaxTotal:  limit,
		SkipCache: opts.noCache,
	})
	if err != nil {
		return err
	}

	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(resp.Results)),
		slog.Bool("cache_hit", resp.CacheHit))

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return renderSearchResults(cmd, query, resp)
}

func renderSearchResults(cmd *cobra.Command, query string, resp *search.Response) error {
	out := output.New(cmd.OutOrStdout())
	w := cmd.OutOrStdout()

	if len(resp.Results) == 0 {
		out.Warningf("No results for %q", query)
		return nil
	}

	for i, r := range resp.Results {
		sources := make([]string, len(r.ContributingSources))
		for j, s := range r.ContributingSources {
			sources[j] = string(s)
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "   %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", r.Snippet)
		}
		out.Dim(fmt.Sprintf("   score %.4f  via %s", r.Score, strings.Join(sources, ", ")))
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("%d results fused from %d raw in %dms",
		len(resp.Results), resp.TotalBeforeFusion, resp.TotalTimeMs)
	if resp.CacheHit {
		summary += " (cached)"
	}
	out.Success(summary)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
