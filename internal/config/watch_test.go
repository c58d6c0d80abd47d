package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForConfig(t *testing.T, ch <-chan *Config) *Config {
	t.Helper()
	select {
	case cfg := <-ch:
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
		return nil
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(dir, func(cfg *Config) { reloaded <- cfg },
		WithWatchLogger(slog.New(slog.DiscardHandler)),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fusemcp.yaml"), []byte(`
search:
  default_mode: fast
`), 0644))

	cfg := waitForConfig(t, reloaded)
	assert.Equal(t, "fast", cfg.Search.DefaultMode)
}

func TestWatcher_InvalidChangeKeepsQuiet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(dir, func(cfg *Config) { reloaded <- cfg },
		WithWatchLogger(slog.New(slog.DiscardHandler)),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fusemcp.yaml"), []byte(`
search:
  default_mode: turbo
`), 0644))

	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config should not trigger callback, got %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(dir, func(cfg *Config) { reloaded <- cfg },
		WithWatchLogger(slog.New(slog.DiscardHandler)),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	select {
	case <-reloaded:
		t.Fatal("unrelated file should not trigger reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestNewWatcher_RequiresCallback(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), nil)
	require.Error(t, err)
}
