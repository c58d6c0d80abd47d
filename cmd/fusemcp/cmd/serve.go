package cmd

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fusemcp/internal/config"
	"github.com/Aman-CERP/fusemcp/internal/logging"
	"github.com/Aman-CERP/fusemcp/internal/mcp"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	transport string
	port      int
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server for AI assistant integration.

The server exposes fusion_search, quick_search, recent_runs, and
source_analytics as MCP tools. With stdio transport (the default),
stdout carries JSON-RPC exclusively; logs go to the file under
~/.fusemcp/logs/.

Configuration is read from ~/.config/fusemcp/config.yaml, then
.fusemcp.yaml in the working directory, then FUSEMCP_* environment
variables. Edits to .fusemcp.yaml are picked up without a restart.`,
		Example: `  # Serve over stdio (for Claude Code, Cursor, etc.)
  fusemcp serve

  # Explicit transport
  fusemcp serve --transport stdio`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.transport, "transport", "t", "", "Transport: stdio (default from config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port for network transports (default from config)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	// stdio reserves stdout for JSON-RPC, so logs go to file only
	logLevel := new(slog.LevelVar)
	logLevel.Set(logging.LevelFromString(cfg.Server.LogLevel))
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	logCfg.DynamicLevel = logLevel
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	a, err := newAppWithConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// enforce telemetry retention on startup
	if a.runs != nil {
		cutoff := time.Now().Add(-cfg.Retention())
		if n, err := a.runs.PurgeOlderThan(cutoff); err != nil {
			logger.Warn("telemetry purge failed", slog.String("error", err.Error()))
		} else if n > 0 {
			logger.Info("purged old search runs", slog.Int64("purged", n))
		}
	}

	// a nil *RunStore must stay a nil interface for the server's checks
	var runs mcp.RunReader
	if a.runs != nil {
		runs = a.runs
	}

	server, err := mcp.NewServer(a.engine, runs, cfg, a.defaultSources())
	if err != nil {
		return err
	}
	server.SetLogger(logger)
	defer func() { _ = server.Close() }()

	// hot-reload project config; log-level changes take effect on the
	// running logger, provider changes need a restart
	watcher, err := config.NewWatcher(".", func(next *config.Config) {
		logLevel.Set(logging.LevelFromString(next.Server.LogLevel))
		logger.Info("configuration reloaded",
			slog.String("log_level", next.Server.LogLevel),
			slog.Any("sources", next.EnabledSources()))
	}, config.WithWatchLogger(logger))
	if err == nil {
		if werr := watcher.Start(ctx); werr != nil {
			logger.Warn("config watcher failed to start", slog.String("error", werr.Error()))
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	transport := opts.transport
	if transport == "" {
		transport = cfg.Server.Transport
	}
	addr := ""
	if opts.port > 0 {
		addr = addrFor(opts.port)
	} else if cfg.Server.Port > 0 {
		addr = addrFor(cfg.Server.Port)
	}

	return server.Serve(ctx, transport, addr)
}

func addrFor(port int) string {
	return ":" + strconv.Itoa(port)
}
