package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fusemcp/internal/output"
)

// analyticsOptions holds CLI flags for analytics.
type analyticsOptions struct {
	source     string
	sinceHours int
	limit      int
	jsonOutput bool
}

func newAnalyticsCmd() *cobra.Command {
	var opts analyticsOptions

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show per-provider health",
		Long: `Aggregate recorded provider calls into per-provider health:
average latency, success rate, and result volume over a recent window.

Use this to spot a provider that has gone slow or started failing.`,
		Example: `  # All providers, last 24 hours
  fusemcp analytics

  # One provider over the last week
  fusemcp analytics --source web --since 168`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalytics(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Narrow to one provider (web, news, answer)")
	cmd.Flags().IntVar(&opts.sinceHours, "since", 24, "Window size in hours")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 100, "Sample size cap per provider")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAnalytics(cmd *cobra.Command, opts analyticsOptions) error {
	a, err := newApp(".", slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.runs == nil {
		return fmt.Errorf("telemetry is disabled in the configuration")
	}

	since := time.Now().Add(-time.Duration(opts.sinceHours) * time.Hour)
	stats, err := a.runs.SourceAnalytics(opts.source, since, opts.limit)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := output.New(cmd.OutOrStdout())
	if len(stats) == 0 {
		out.Dim("No provider activity in the selected window.")
		return nil
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %12s %9s %9s %8s\n", "SOURCE", "AVG LATENCY", "SUCCESS", "RESULTS", "SAMPLE")
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(w, "%-10s %10.0fms %8d%% %9d %8d\n",
			s.Source, s.AvgLatencyMs, s.SuccessRate, s.TotalResults, s.SampleSize)
	}
	out.Dim(fmt.Sprintf("window: last %dh, sample cap %d per provider", opts.sinceHours, opts.limit))

	if a.cache != nil {
		cs := a.cache.Stats()
		out.Dim(fmt.Sprintf("cache this process: %d hits, %d misses", cs.Hits, cs.Misses))
	}
	return nil
}
