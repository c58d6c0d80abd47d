package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fusemcp/internal/config"
	"github.com/Aman-CERP/fusemcp/internal/provider"
	"github.com/Aman-CERP/fusemcp/internal/search"
	"github.com/Aman-CERP/fusemcp/internal/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestBuildRegistry_DefaultsToFixtures(t *testing.T) {
	registry, err := buildRegistry(testConfig(t))
	require.NoError(t, err)

	// web and news are enabled by default, answer is not
	assert.Equal(t, []provider.ID{provider.IDNews, provider.IDWeb}, registry.IDs())
}

func TestBuildRegistry_EndpointSelectsHTTPAdapter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Providers.Web.Endpoint = "https://api.example.com/search"

	registry, err := buildRegistry(cfg)
	require.NoError(t, err)

	adapter, ok := registry.Get(provider.IDWeb)
	require.True(t, ok)
	_, isHTTP := adapter.(*provider.JSONAdapter)
	assert.True(t, isHTTP)

	news, ok := registry.Get(provider.IDNews)
	require.True(t, ok)
	_, isHTTP = news.(*provider.JSONAdapter)
	assert.False(t, isHTTP)
}

func TestBuildRegistry_NoProvidersEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Providers.Web.Enabled = false
	cfg.Providers.News.Enabled = false

	_, err := buildRegistry(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers enabled")
}

func TestNewApp_WiresFullPipeline(t *testing.T) {
	a, err := newAppWithConfig(testConfig(t), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NotNil(t, a.engine)
	require.NotNil(t, a.cache)
	require.NotNil(t, a.runs)

	resp, err := a.engine.Search(context.Background(), search.Request{
		Query:   "golang",
		Mode:    search.ModeBalanced,
		Sources: a.defaultSources(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)

	runs, err := a.runs.RecentRuns(telemetry.RunFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "golang", runs[0].Query)
}

func TestNewApp_RespectsDisabledSubsystems(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	cfg.Telemetry.Enabled = false

	a, err := newAppWithConfig(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Nil(t, a.cache)
	assert.Nil(t, a.runs)

	// searches still work without cache and telemetry
	resp, err := a.engine.Search(context.Background(), search.Request{
		Query:   "golang",
		Mode:    search.ModeFast,
		Sources: a.defaultSources(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
	assert.False(t, resp.CacheHit)
}

func TestFixtureResults_AllSourcesCovered(t *testing.T) {
	for _, id := range []provider.ID{provider.IDWeb, provider.IDNews, provider.IDAnswer} {
		results := fixtureResults(id)
		require.NotEmpty(t, results, "no fixtures for %s", id)
		for _, r := range results {
			assert.NotEmpty(t, r.URL)
			assert.NotEmpty(t, r.Title)
		}
	}
}
