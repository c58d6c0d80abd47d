package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, filepath.Join(dir, "fusemcp.db"), db.Path())

	// Pragmas applied, handle usable
	var mode string
	require.NoError(t, db.SQL().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_SecondProcessRejected(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = Open(dir)
	assert.Error(t, err)
}

func TestOpen_LockReleasedOnClose(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := Open(dir)
	require.NoError(t, err)
	defer db2.Close()
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	assert.Empty(t, db.Path())

	_, err = db.SQL().Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
}
