package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/fusemcp/internal/config"
	"github.com/Aman-CERP/fusemcp/internal/provider"
	"github.com/Aman-CERP/fusemcp/internal/search"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
	"github.com/Aman-CERP/fusemcp/pkg/version"
)

// quickSearchDefaultLimit caps quick_search responses.
const quickSearchDefaultLimit = 5

// SearchEngine is the slice of the orchestrator the server needs.
type SearchEngine interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// RunReader serves the telemetry read-back tools.
type RunReader interface {
	RecentRuns(filter telemetry.RunFilter, limit int) ([]telemetry.SearchRun, error)
	SourceAnalytics(source string, since time.Time, limit int) (map[string]telemetry.SourceStats, error)
}

// Server is the MCP server for FuseMCP. It bridges AI clients with the
// fusion search engine and its run telemetry.
type Server struct {
	mcp            *mcp.Server
	engine         SearchEngine
	runs           RunReader
	config         *config.Config
	defaultSources []provider.ID
	logger         *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server. runs may be nil, in which case
// the telemetry tools report empty data. defaultSources is the source
// set used when a caller omits sources.
func NewServer(engine SearchEngine, runs RunReader, cfg *config.Config, defaultSources []provider.ID) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		engine:         engine,
		runs:           runs,
		config:         cfg,
		defaultSources: defaultSources,
		logger:         slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "FuseMCP",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)

	s.registerTools()
	return s, nil
}

// SetLogger sets the structured logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "FuseMCP", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "fusion_search",
			Description: "Search multiple providers in parallel and get one deduplicated, ranked result list. Results seen by several providers rank higher. Responses are cached, so repeating a query is cheap.",
		},
		{
			Name:        "quick_search",
			Description: "Fast single-shot search across all enabled providers with a short answer list. Use for quick lookups where depth does not matter.",
		},
		{
			Name:        "recent_runs",
			Description: "List recent search runs with their mode, result counts, cache status, and timing. Use to inspect what was searched and how it performed.",
		},
		{
			Name:        "source_analytics",
			Description: "Per-provider health over a recent window: average latency, success rate, and result volume. Use to spot a slow or failing provider.",
		},
	}
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	for _, t := range s.ListTools() {
		s.logger.Debug("Registering MCP tool", slog.String("name", t.Name))
	}

	tools := s.ListTools()
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpFusionSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpQuickSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpRecentRunsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpSourceAnalyticsHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

// CallTool invokes a tool by name with the given arguments, returning
// markdown-formatted text. Used by direct (non-SDK) callers and tests.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "fusion_search":
		in := FusionSearchInput{
			Query: stringArg(args, "query"),
			Mode:  stringArg(args, "mode"),
		}
		if n, ok := args["max_results"].(float64); ok {
			in.MaxResults = int(n)
		}
		if skip, ok := args["skip_cache"].(bool); ok {
			in.SkipCache = skip
		}
		if raw, ok := args["sources"].([]any); ok {
			for _, v := range raw {
				if str, ok := v.(string); ok {
					in.Sources = append(in.Sources, str)
				}
			}
		}
		resp, err := s.fusionSearch(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSearchResponse(in.Query, resp), nil
	case "quick_search":
		in := FusionSearchInput{Query: stringArg(args, "query"), Mode: string(search.ModeFast)}
		in.MaxResults = quickSearchDefaultLimit
		if n, ok := args["max_results"].(float64); ok && n > 0 {
			in.MaxResults = int(n)
		}
		resp, err := s.fusionSearch(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSearchResponse(in.Query, resp), nil
	case "recent_runs":
		limit := 10
		if n, ok := args["limit"].(float64); ok && n > 0 {
			limit = int(n)
		}
		runs, err := s.recentRuns(RecentRunsInput{Limit: limit, Mode: stringArg(args, "mode")})
		if err != nil {
			return "", err
		}
		return FormatRuns(runs), nil
	case "source_analytics":
		in := SourceAnalyticsInput{Source: stringArg(args, "source")}
		if n, ok := args["since_hours"].(float64); ok {
			in.SinceHours = int(n)
		}
		if n, ok := args["limit"].(float64); ok {
			in.Limit = int(n)
		}
		stats, err := s.sourceAnalytics(in)
		if err != nil {
			return "", err
		}
		return FormatSourceStats(stats), nil
	default:
		return "", NewMethodNotFoundError(name)
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// fusionSearch translates tool input into an orchestrator request.
func (s *Server) fusionSearch(ctx context.Context, input FusionSearchInput) (*search.Response, error) {
	requestID := generateRequestID()
	start := time.Now()

	mode, err := search.ParseMode(input.Mode)
	if err != nil {
		return nil, MapError(err)
	}

	sources := s.defaultSources
	if len(input.Sources) > 0 {
		sources = make([]provider.ID, 0, len(input.Sources))
		for _, src := range input.Sources {
			sources = append(sources, provider.ID(src))
		}
	}

	maxTotal := input.MaxResults
	if maxTotal <= 0 {
		maxTotal = s.config.Search.MaxTotal
	}

	s.logger.Info("fusion search started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("mode", string(mode)),
		slog.Int("sources", len(sources)))

	resp, err := s.engine.Search(ctx, search.Request{
		Query:     input.Query,
		Mode:      mode,
		Sources:   sources,
		MaxTotal:  maxTotal,
		SkipCache: input.SkipCache,
	})
	if err != nil {
		s.logger.Error("fusion search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("fusion search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(resp.Results)),
		slog.Bool("cache_hit", resp.CacheHit))
	return resp, nil
}

func (s *Server) recentRuns(input RecentRunsInput) ([]telemetry.SearchRun, error) {
	if s.runs == nil {
		return nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	runs, err := s.runs.RecentRuns(telemetry.RunFilter{Mode: input.Mode}, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return runs, nil
}

func (s *Server) sourceAnalytics(input SourceAnalyticsInput) ([]SourceStatsOutput, error) {
	if s.runs == nil {
		return nil, nil
	}

	sinceHours := input.SinceHours
	if sinceHours <= 0 {
		sinceHours = 24
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}

	stats, err := s.runs.SourceAnalytics(input.Source, time.Now().Add(-time.Duration(sinceHours)*time.Hour), limit)
	if err != nil {
		return nil, MapError(err)
	}

	out := make([]SourceStatsOutput, 0, len(stats))
	for _, st := range stats {
		out = append(out, SourceStatsOutput{
			Source:       st.Source,
			AvgLatencyMs: st.AvgLatencyMs,
			SuccessRate:  st.SuccessRate,
			TotalResults: st.TotalResults,
			SampleSize:   st.SampleSize,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// mcpFusionSearchHandler is the MCP SDK handler for the fusion_search tool.
func (s *Server) mcpFusionSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input FusionSearchInput) (
	*mcp.CallToolResult,
	FusionSearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, FusionSearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	resp, err := s.fusionSearch(ctx, input)
	if err != nil {
		return nil, FusionSearchOutput{}, err
	}
	return nil, toFusionSearchOutput(resp), nil
}

// mcpQuickSearchHandler is the MCP SDK handler for the quick_search tool.
func (s *Server) mcpQuickSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input QuickSearchInput) (
	*mcp.CallToolResult,
	QuickSearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, QuickSearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = quickSearchDefaultLimit
	}

	resp, err := s.fusionSearch(ctx, FusionSearchInput{
		Query:      input.Query,
		Mode:       string(search.ModeFast),
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, QuickSearchOutput{}, err
	}
	return nil, QuickSearchOutput{Results: toResultOutputs(resp)}, nil
}

// mcpRecentRunsHandler is the MCP SDK handler for the recent_runs tool.
func (s *Server) mcpRecentRunsHandler(_ context.Context, _ *mcp.CallToolRequest, input RecentRunsInput) (
	*mcp.CallToolResult,
	RecentRunsOutput,
	error,
) {
	runs, err := s.recentRuns(input)
	if err != nil {
		return nil, RecentRunsOutput{}, err
	}

	out := RecentRunsOutput{Runs: make([]RunOutput, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunOutput{
			ID:                r.ID,
			Query:             r.Query,
			Mode:              r.Mode,
			TotalResults:      r.TotalResults,
			TotalBeforeFusion: r.TotalBeforeFusion,
			CacheHit:          r.CacheHit,
			Reranked:          r.Reranked,
			TotalTimeMs:       r.TotalTimeMs,
			Timestamp:         r.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

// mcpSourceAnalyticsHandler is the MCP SDK handler for the source_analytics tool.
func (s *Server) mcpSourceAnalyticsHandler(_ context.Context, _ *mcp.CallToolRequest, input SourceAnalyticsInput) (
	*mcp.CallToolResult,
	SourceAnalyticsOutput,
	error,
) {
	stats, err := s.sourceAnalytics(input)
	if err != nil {
		return nil, SourceAnalyticsOutput{}, err
	}
	return nil, SourceAnalyticsOutput{Sources: stats}, nil
}

func toFusionSearchOutput(resp *search.Response) FusionSearchOutput {
	queried := make([]string, len(resp.SourcesQueried))
	for i, id := range resp.SourcesQueried {
		queried[i] = string(id)
	}
	return FusionSearchOutput{
		Results:           toResultOutputs(resp),
		SourcesQueried:    queried,
		TotalBeforeFusion: resp.TotalBeforeFusion,
		Reranked:          resp.Reranked,
		CacheHit:          resp.CacheHit,
		TotalTimeMs:       resp.TotalTimeMs,
	}
}

func toResultOutputs(resp *search.Response) []ResultOutput {
	out := make([]ResultOutput, 0, len(resp.Results))
	for _, r := range resp.Results {
		sources := make([]string, len(r.ContributingSources))
		for i, s := range r.ContributingSources {
			sources[i] = string(s)
		}
		out = append(out, ResultOutput{
			Title:               r.Title,
			URL:                 r.URL,
			Snippet:             r.Snippet,
			Score:               r.Score,
			ContributingSources: sources,
		})
	}
	return out
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.String("addr", addr))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	case "sse":
		// SSE transport not yet implemented in SDK
		return fmt.Errorf("SSE transport not yet implemented")
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	// the MCP server stops when its context is canceled
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
