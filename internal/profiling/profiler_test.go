package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_StartCPU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")

	p := NewProfiler()
	cleanup, err := p.StartCPU(path)
	require.NoError(t, err)

	// generate some CPU samples
	sum := 0
	for i := 0; i < 1000000; i++ {
		sum += i
	}
	_ = sum

	cleanup()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProfiler_WriteHeap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")

	p := NewProfiler()
	require.NoError(t, p.WriteHeap(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProfiler_StartTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exec.trace")

	p := NewProfiler()
	cleanup, err := p.StartTrace(path)
	require.NoError(t, err)
	cleanup()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProfiler_StartCPU_BadPath(t *testing.T) {
	p := NewProfiler()
	_, err := p.StartCPU(filepath.Join(t.TempDir(), "missing", "cpu.prof"))
	require.Error(t, err)
}
