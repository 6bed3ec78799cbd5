package solver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/foamstudy/internal/casedir"
	"github.com/vk/foamstudy/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func shRunner(script string, timeout, poll time.Duration) *Runner {
	return &Runner{
		Command:      []string{"sh", "-c", script},
		Timeout:      timeout,
		PollInterval: poll,
	}
}

func TestRunCompleted(t *testing.T) {
	dir := t.TempDir()
	r := shRunner("echo simulating; echo End", 5*time.Second, 10*time.Millisecond)

	res, err := r.Run(testContext(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.LogTail, "End")

	// Output landed in the case's run.log.
	data, readErr := os.ReadFile(filepath.Join(dir, casedir.LogName))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "simulating")
}

func TestRunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	r := shRunner("echo diverged; exit 3", 5*time.Second, 10*time.Millisecond)

	res, err := r.Run(testContext(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.LogTail, "diverged")
}

func TestRunCleanExitWithoutSentinelFails(t *testing.T) {
	dir := t.TempDir()
	r := shRunner("echo still iterating", 5*time.Second, 10*time.Millisecond)

	res, err := r.Run(testContext(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	r := shRunner("sleep 5", 150*time.Millisecond, 10*time.Millisecond)

	res, err := r.Run(testContext(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, res.Status)
}

func TestRunKillsOnFatalLog(t *testing.T) {
	dir := t.TempDir()
	r := shRunner(`echo "--> FOAM FATAL ERROR"; sleep 10`, 30*time.Second, 20*time.Millisecond)

	start := time.Now()
	res, err := r.Run(testContext(), dir)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second, "fatal log should abort long before timeout")
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := (&Runner{}).Run(testContext(), t.TempDir())
	require.Error(t, err)
}

func TestRunMissingBinary(t *testing.T) {
	r := &Runner{Command: []string{"definitely-not-a-solver-binary"}, Timeout: time.Second}
	_, err := r.Run(testContext(), t.TempDir())
	require.Error(t, err)
}
