package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, content string) string {
	t.Helper()

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "fusemcp")
	require.NoError(t, os.MkdirAll(dir, 0755))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBackupUserConfig_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfig_CreatesTimestampedCopy(t *testing.T) {
	original := writeUserConfig(t, "version: 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.True(t, strings.HasPrefix(backupPath, original+BackupSuffix))

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestBackupUserConfig_KeepsOnlyMaxBackups(t *testing.T) {
	writeUserConfig(t, "version: 1\n")

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		// backup names are second-granular timestamps; make them distinct
		time.Sleep(1100 * time.Millisecond)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfig(t *testing.T) {
	original := writeUserConfig(t, "version: 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(original, []byte("version: 2\n"), 0644))
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(original)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestRestoreUserConfig_MissingBackup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	err := RestoreUserConfig("/nonexistent/backup.yaml.bak")
	require.Error(t, err)
}
