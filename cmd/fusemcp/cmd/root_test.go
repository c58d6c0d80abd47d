package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "fusemcp")
	assert.Contains(t, out, "search providers")
	for _, sub := range []string{"serve", "search", "runs", "analytics", "config", "version"} {
		assert.Contains(t, out, sub, "missing subcommand %s in help", sub)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "fusemcp version")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := executeCommand(t, "frobnicate")
	require.Error(t, err)
}
