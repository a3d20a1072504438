package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestList_ShowsRegisteredPlugins(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "backends:")
	assert.Contains(t, out, "frontends:")
	assert.Contains(t, out, "filters:")
	assert.Contains(t, out, "console")
	assert.Contains(t, out, "tui")
	assert.Contains(t, out, "sof")
}

func TestRun_UnknownBackend(t *testing.T) {
	_, err := execute(t, "run", "--backend", "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestRun_UnknownFilter(t *testing.T) {
	_, err := execute(t, "run", "--backend", "does-not-exist", "--filter", "nope")
	require.Error(t, err)
}
