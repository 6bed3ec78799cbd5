package casedir

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/foamstudy/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"0/alpha.water":                "boundaryField\n{\n}\n",
		"constant/transportProperties": "sigma           0.040;\n",
		"system/controlDict":           "endTime         0.02;\n",
		// Never part of a fresh run.
		"postProcessing/probes/0/p": "0 101325\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestPrepareCopiesTemplateSubdirs(t *testing.T) {
	template := writeTemplate(t)
	caseDir := filepath.Join(t.TempDir(), "run_001_eta0_0.5")

	require.NoError(t, Prepare(testContext(), template, caseDir))

	for _, rel := range []string{"0/alpha.water", "constant/transportProperties", "system/controlDict"} {
		_, err := os.Stat(filepath.Join(caseDir, rel))
		assert.NoError(t, err, rel)
	}
	_, err := os.Stat(filepath.Join(caseDir, "postProcessing"))
	assert.True(t, os.IsNotExist(err), "results directories must not be copied")
}

func TestPrepareReplacesExistingDirectory(t *testing.T) {
	template := writeTemplate(t)
	caseDir := filepath.Join(t.TempDir(), "run_001")

	require.NoError(t, Prepare(testContext(), template, caseDir))
	stale := filepath.Join(caseDir, "0.0005")
	require.NoError(t, os.MkdirAll(stale, 0o755))

	require.NoError(t, Prepare(testContext(), template, caseDir))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale time directories must be cleared")
}

func TestCompletedSentinels(t *testing.T) {
	cases := []struct {
		name string
		log  string
		want bool
	}{
		{"end line", "Courant Number mean: 0.1\nExecutionTime = 4 s\nEnd\n", true},
		{"finalising", "Finalising parallel run\n", true},
		{"still running", "Courant Number mean: 0.1\n", false},
		{"end inside word", "Ending time loop early\n", false},
		{"no log", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.log != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, LogName), []byte(tc.log), 0o644))
			}
			assert.Equal(t, tc.want, Completed(dir))
		})
	}
}

func TestFailed(t *testing.T) {
	dir := t.TempDir()
	log := "--> FOAM FATAL ERROR:\nCannot find file \"points\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, LogName), []byte(log), 0o644))

	assert.True(t, Failed(dir))
	assert.False(t, Completed(dir))
	assert.False(t, Failed(t.TempDir()))
}

func TestScanCompleted(t *testing.T) {
	results := t.TempDir()
	mkRun := func(name, log string) {
		dir := filepath.Join(results, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		if log != "" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, LogName), []byte(log), 0o644))
		}
	}
	mkRun("run_002_eta0_1", "End\n")
	mkRun("run_001_eta0_0.5", "Finalising parallel run\n")
	mkRun("run_003_eta0_2", "Courant Number mean: 0.1\n")
	mkRun("run_004_eta0_4", "")

	completed, err := ScanCompleted(results)
	require.NoError(t, err)
	assert.Equal(t, []string{"run_001_eta0_0.5", "run_002_eta0_1"}, completed)
}

func TestScanCompletedMissingDir(t *testing.T) {
	completed, err := ScanCompleted(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, completed)
}
