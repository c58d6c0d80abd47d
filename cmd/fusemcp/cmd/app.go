package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/fusemcp/internal/cache"
	"github.com/Aman-CERP/fusemcp/internal/config"
	"github.com/Aman-CERP/fusemcp/internal/errors"
	"github.com/Aman-CERP/fusemcp/internal/fanout"
	"github.com/Aman-CERP/fusemcp/internal/fusion"
	"github.com/Aman-CERP/fusemcp/internal/provider"
	"github.com/Aman-CERP/fusemcp/internal/search"
	"github.com/Aman-CERP/fusemcp/internal/store"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
)

// app bundles the wired-up components a command needs. Build one with
// newApp and always defer Close.
type app struct {
	cfg      *config.Config
	db       *store.DB
	registry *provider.Registry
	engine   *search.Engine
	cache    *cache.Store
	runs     *telemetry.RunStore
	logger   *slog.Logger
}

// newApp loads configuration from dir, opens the data store, and wires
// the full search pipeline: providers, dispatcher, fusion, cache,
// telemetry, orchestrator.
func newApp(dir string, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg, logger)
}

func newAppWithConfig(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data store: %w", err)
	}

	a := &app{cfg: cfg, db: db, logger: logger}
	if err := a.wire(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	registry, err := buildRegistry(a.cfg)
	if err != nil {
		return err
	}
	a.registry = registry

	retryCfg := errors.DefaultRetryConfig()
	retryCfg.MaxRetries = a.cfg.Search.MaxRetries

	dispatcher := fanout.New(registry,
		fanout.WithTimeout(a.cfg.ProviderTimeout()),
		fanout.WithRetryConfig(retryCfg),
		fanout.WithLogger(a.logger),
	)

	fuser := fusion.NewEngine(fusion.SnippetReranker{})

	opts := []search.EngineOption{search.WithLogger(a.logger)}

	if a.cfg.Cache.Enabled {
		cacheStore, err := cache.NewStore(a.db.SQL(), cache.WithHotEntries(a.cfg.Cache.HotEntries))
		if err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
		a.cache = cacheStore
		opts = append(opts, search.WithCache(cacheStore))
	}

	if a.cfg.Telemetry.Enabled {
		runStore, err := telemetry.NewRunStore(a.db.SQL())
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		a.runs = runStore
		opts = append(opts, search.WithRunRecorder(runStore))
	}

	engine, err := search.NewEngine(dispatcher, fuser, opts...)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

// defaultSources returns the enabled provider IDs in registry order.
func (a *app) defaultSources() []provider.ID {
	return a.registry.IDs()
}

func (a *app) Close() error {
	return a.db.Close()
}

// buildRegistry registers one adapter per enabled provider. Providers
// with an endpoint get the JSON HTTP adapter; the rest fall back to
// built-in fixtures so the server works offline out of the box.
func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	entries := []struct {
		id  provider.ID
		pc  config.ProviderConfig
	}{
		{provider.IDWeb, cfg.Providers.Web},
		{provider.IDNews, cfg.Providers.News},
		{provider.IDAnswer, cfg.Providers.Answer},
	}

	for _, e := range entries {
		if !e.pc.Enabled {
			continue
		}

		var adapter provider.Adapter
		if e.pc.Endpoint != "" {
			httpAdapter, err := provider.NewJSONAdapter(provider.HTTPConfig{
				ID:       e.id,
				Endpoint: e.pc.Endpoint,
				APIKey:   e.pc.APIKey,
				Timeout:  cfg.ProviderTimeout(),
			}, nil)
			if err != nil {
				return nil, fmt.Errorf("configuring provider %q: %w", e.id, err)
			}
			adapter = httpAdapter
		} else {
			adapter = provider.NewStaticAdapter(e.id, fixtureResults(e.id))
		}

		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}

	if registry.Len() == 0 {
		return nil, fmt.Errorf("no providers enabled; enable at least one in the providers section")
	}
	return registry, nil
}

// fixtureResults returns the offline demo result set for a provider.
func fixtureResults(id provider.ID) []provider.Result {
	switch id {
	case provider.IDNews:
		return []provider.Result{
			{Title: "Go 1.25 released", URL: "https://go.dev/blog/go1.25", Snippet: "The latest Go release adds runtime and toolchain improvements."},
			{Title: "MCP adoption grows across editors", URL: "https://example.org/news/mcp-adoption", Snippet: "The Model Context Protocol is becoming the standard tool interface for AI assistants."},
			{Title: "SQLite turns 25", URL: "https://example.org/news/sqlite-25", Snippet: "The most widely deployed database engine celebrates a milestone."},
		}
	case provider.IDAnswer:
		return []provider.Result{
			{Title: "Direct answer", URL: "https://example.org/answer", Snippet: "FuseMCP merges results from several search providers into one ranked list."},
		}
	default:
		return []provider.Result{
			{Title: "Go documentation", URL: "https://go.dev/doc/", Snippet: "Official Go documentation, tutorials, and references."},
			{Title: "Go 1.25 released", URL: "https://go.dev/blog/go1.25", Snippet: "Release notes for the Go 1.25 toolchain."},
			{Title: "Effective Go", URL: "https://go.dev/doc/effective_go", Snippet: "Tips for writing clear, idiomatic Go code."},
			{Title: "The Go Playground", URL: "https://go.dev/play/", Snippet: "Run Go code in the browser."},
		}
	}
}
