package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/fusemcp/internal/config"
)

// isolateUserConfig points XDG_CONFIG_HOME at a temp dir so tests
// never touch the real user config.
func isolateUserConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestConfigPath(t *testing.T) {
	dir := isolateUserConfig(t)

	out, err := executeCommand(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "fusemcp", "config.yaml"))
}

func TestConfigInit_CreatesFile(t *testing.T) {
	isolateUserConfig(t)

	out, err := executeCommand(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "balanced", cfg.Search.DefaultMode)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	isolateUserConfig(t)

	_, err := executeCommand(t, "config", "init")
	require.NoError(t, err)

	out, err := executeCommand(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = executeCommand(t, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
}

func TestConfigShow_MergedYAML(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("FUSEMCP_DEFAULT_MODE", "comprehensive")

	out, err := executeCommand(t, "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "comprehensive", cfg.Search.DefaultMode)
}

func TestConfigBackupAndRestore(t *testing.T) {
	isolateUserConfig(t)

	// nothing to back up yet
	out, err := executeCommand(t, "config", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "No user config")

	_, err = executeCommand(t, "config", "init")
	require.NoError(t, err)

	out, err = executeCommand(t, "config", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up to")

	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	require.NoError(t, os.Remove(config.GetUserConfigPath()))

	out, err = executeCommand(t, "config", "restore", backups[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Restored")
	assert.True(t, config.UserConfigExists())
}
