package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	cfg := Config{
		Level:         "info",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("search_started", slog.String("query", "openai funding"))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "search_started", entry["msg"])
	assert.Equal(t, "openai funding", entry["query"])
}

func TestSetup_DebugLevelFiltered(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	cfg := Config{
		Level:         "warn",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("should_be_filtered")
	logger.Warn("should_appear")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should_be_filtered")
	assert.Contains(t, string(data), "should_appear")
}

func TestSetup_DynamicLevelRetunesRunningLogger(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	cfg := Config{
		Level:         "error", // DynamicLevel wins over Level
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
		DynamicLevel:  level,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))

	logger.Debug("before_retune")
	level.Set(slog.LevelDebug)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
	logger.Debug("after_retune")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "before_retune")
	assert.Contains(t, string(data), "after_retune")
}

func TestRotatingWriter_RotatesAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	// 1MB max; write just over it in two chunks
	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	big := make([]byte, 1024*1024)
	for i := range big {
		big[i] = 'a'
	}
	_, err = w.Write(big)
	require.NoError(t, err)

	_, err = w.Write([]byte("after rotation\n"))
	require.NoError(t, err)

	// Rotated file should exist
	_, err = os.Stat(logPath + ".1")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "after rotation\n", string(data))
}

func TestFindLogFile_ExplicitMissing(t *testing.T) {
	_, err := FindLogFile(filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
}

func TestFindLogFile_ExplicitFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	found, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
