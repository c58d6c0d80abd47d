package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fusemcp/internal/search"
)

// isolateDataDir keeps CLI runs away from the real home directory.
func isolateDataDir(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FUSEMCP_DATA_DIR", t.TempDir())
}

func TestSearchCmd_TextOutput(t *testing.T) {
	isolateDataDir(t)

	out, err := executeCommand(t, "search", "golang", "release")
	require.NoError(t, err)

	// fixture providers answer offline
	assert.Contains(t, out, "go.dev")
	assert.Contains(t, out, "results fused from")
	assert.Contains(t, out, "score")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	isolateDataDir(t)

	out, err := executeCommand(t, "search", "golang", "--format", "json", "--limit", "3")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 3)
	assert.False(t, resp.CacheHit)
}

func TestSearchCmd_SecondRunHitsCache(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang", "--format", "json")
	require.NoError(t, err)

	out, err := executeCommand(t, "search", "golang", "--format", "json")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.CacheHit)
}

func TestSearchCmd_NoCacheFlag(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang", "--format", "json")
	require.NoError(t, err)

	out, err := executeCommand(t, "search", "golang", "--format", "json", "--no-cache")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.CacheHit)
}

func TestSearchCmd_InvalidMode(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang", "--mode", "turbo")
	require.Error(t, err)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := executeCommand(t, "search")
	require.Error(t, err)
}

func TestRunsCmd_ListsRecordedRuns(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang", "concurrency")
	require.NoError(t, err)

	out, err := executeCommand(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "golang concurrency")
	assert.Contains(t, out, "miss")
}

func TestRunsCmd_DetailShowsProviders(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang")
	require.NoError(t, err)

	listOut, err := executeCommand(t, "runs", "--json")
	require.NoError(t, err)

	var runs []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(listOut), &runs))
	require.NotEmpty(t, runs)

	out, err := executeCommand(t, "runs", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Providers:")
	assert.Contains(t, out, "web")
}

func TestRunsCmd_UnknownID(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "runs", "no-such-run")
	require.Error(t, err)
}

func TestAnalyticsCmd_AggregatesProviders(t *testing.T) {
	isolateDataDir(t)

	_, err := executeCommand(t, "search", "golang")
	require.NoError(t, err)

	out, err := executeCommand(t, "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "news")
}

func TestAnalyticsCmd_EmptyWindow(t *testing.T) {
	isolateDataDir(t)

	out, err := executeCommand(t, "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "No provider activity")
}
