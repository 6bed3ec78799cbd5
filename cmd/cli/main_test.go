package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A malformed base parameter file is guaranteed to panic inside
	// app.NewApp().
	tempDir := t.TempDir()
	paramsPath := filepath.Join(tempDir, "base_parameters.yaml")
	err := os.WriteFile(paramsPath, []byte(":\n\t- not yaml"), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"-params", paramsPath, "-studies", tempDir, "list"}
	out := &bytes.Buffer{}

	// --- Act ---
	// run should recover the panic and return it as an error.
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// An unknown flag causes cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag", "list"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ListEmptyStudiesDir(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	args := []string{"-studies", tempDir, "-params", filepath.Join(tempDir, "none.yaml"), "list"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err)
	require.Contains(t, out.String(), "no studies found")
}
