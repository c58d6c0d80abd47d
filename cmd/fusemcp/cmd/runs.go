package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fusemcp/internal/output"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
)

// runsOptions holds CLI flags for runs.
type runsOptions struct {
	limit      int
	mode       string
	cacheOnly  bool
	missesOnly bool
	jsonOutput bool
}

func newRunsCmd() *cobra.Command {
	var opts runsOptions

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect recorded search runs",
		Long: `List recent search runs, or show one run in full.

Every search records a run: the query, mode, per-provider latency and
outcome, fusion counts, and whether the cache answered. Pass a run ID
to see the per-provider breakdown.`,
		Example: `  # Last 20 runs
  fusemcp runs

  # Only cache misses in balanced mode
  fusemcp runs --mode balanced --misses

  # Per-provider detail for one run
  fusemcp runs 1f0c2e7a-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runRunDetail(cmd, args[0], opts.jsonOutput)
			}
			return runRunsList(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Filter by mode: fast, balanced, comprehensive")
	cmd.Flags().BoolVar(&opts.cacheOnly, "hits", false, "Only cache hits")
	cmd.Flags().BoolVar(&opts.missesOnly, "misses", false, "Only cache misses")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRunsList(cmd *cobra.Command, opts runsOptions) error {
	a, err := newApp(".", slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.runs == nil {
		return fmt.Errorf("telemetry is disabled in the configuration")
	}

	filter := telemetry.RunFilter{Mode: opts.mode}
	if opts.cacheOnly {
		hit := true
		filter.CacheHit = &hit
	} else if opts.missesOnly {
		miss := false
		filter.CacheHit = &miss
	}

	runs, err := a.runs.RecentRuns(filter, opts.limit)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	out := output.New(cmd.OutOrStdout())
	if len(runs) == 0 {
		out.Dim("No search runs recorded yet.")
		return nil
	}

	w := cmd.OutOrStdout()
	for _, r := range runs {
		cache := "miss"
		if r.CacheHit {
			cache = "hit "
		}
		fmt.Fprintf(w, "%s  %s  %-13s %2d results  %s  %4dms  %s\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Mode,
			r.TotalResults,
			cache,
			r.TotalTimeMs,
			r.Query)
	}
	out.Dim(fmt.Sprintf("%d runs (use 'fusemcp runs <id>' for provider detail)", len(runs)))
	return nil
}

func runRunDetail(cmd *cobra.Command, id string, jsonOutput bool) error {
	a, err := newApp(".", slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.runs == nil {
		return fmt.Errorf("telemetry is disabled in the configuration")
	}

	run, found, err := a.runs.GetRun(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("run %q not found", id)
	}

	detail, err := a.runs.RunDetail(run.ID)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Run       telemetry.SearchRun  `json:"run"`
			Providers []telemetry.RunResult `json:"providers"`
		}{run, detail})
	}

	w := cmd.OutOrStdout()
	out := output.New(w)

	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Query:   %s\n", run.Query)
	fmt.Fprintf(w, "  Mode:    %s\n", run.Mode)
	fmt.Fprintf(w, "  Time:    %s\n", run.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Results: %d fused from %d raw\n", run.TotalResults, run.TotalBeforeFusion)
	fmt.Fprintf(w, "  Cache:   %v  Reranked: %v  Duration: %dms\n", run.CacheHit, run.Reranked, run.TotalTimeMs)

	if len(detail) == 0 {
		out.Dim("  No provider calls (cache hit).")
		return nil
	}

	fmt.Fprintln(w, "  Providers:")
	for _, p := range detail {
		status := "ok"
		if !p.Success {
			status = "failed: " + p.ErrorMessage
		}
		fmt.Fprintf(w, "    %-8s %4dms  %2d results  %s\n", p.Source, p.LatencyMs, p.ResultCount, status)
	}
	return nil
}
