package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRootCmd_RejectsUnknownLogLevel fails before any build work starts.
func TestRootCmd_RejectsUnknownLogLevel(t *testing.T) {
	var stderr bytes.Buffer

	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--log-level", "chatty", "--project-root", t.TempDir()})

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	require.ErrorContains(t, err, `unknown log level "chatty"`)
}

// TestRootCmd_RejectsPositionalArgs keeps the command argument-free.
func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	var stderr bytes.Buffer

	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"extra"})

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	require.Error(t, rootCmd.Execute())
}
