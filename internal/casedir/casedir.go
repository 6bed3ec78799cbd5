package casedir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/fsutil"
)

// LogName is the solver log file written inside each case directory.
const LogName = "run.log"

// templateSubdirs are the parts of a case template that a run needs. Results
// directories (time steps, postProcessing) are never copied.
var templateSubdirs = []string{"0", "constant", "system"}

// Prepare creates caseDir as a fresh copy of the template tree. An existing
// directory at caseDir is removed first, so a re-run always starts from the
// pristine template.
func Prepare(ctx context.Context, templateDir, caseDir string) error {
	logger := ctxlog.FromContext(ctx)

	if err := os.RemoveAll(caseDir); err != nil {
		return fmt.Errorf("clearing %s: %w", caseDir, err)
	}
	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", caseDir, err)
	}

	for _, sub := range templateSubdirs {
		src := filepath.Join(templateDir, sub)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := fsutil.CopyTree(src, filepath.Join(caseDir, sub)); err != nil {
			return fmt.Errorf("copying %s: %w", sub, err)
		}
	}

	logger.Debug("prepared case directory", "template", templateDir, "case", caseDir)
	return nil
}

// Completed reports whether the case's solver log shows a clean finish.
// OpenFOAM prints "End" on normal termination and "Finalising" on final
// write, either one counts.
func Completed(caseDir string) bool {
	data, err := os.ReadFile(filepath.Join(caseDir, LogName))
	if err != nil {
		return false
	}
	return hasSentinel(string(data), "End") || strings.Contains(string(data), "Finalising")
}

// Failed reports whether the case's solver log contains a FOAM fatal error.
func Failed(caseDir string) bool {
	data, err := os.ReadFile(filepath.Join(caseDir, LogName))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "FOAM FATAL")
}

// hasSentinel matches the sentinel as a whole line, so words like
// "Ending" or "Endless" in solver banners do not count.
func hasSentinel(log, sentinel string) bool {
	for _, line := range strings.Split(log, "\n") {
		if strings.TrimSpace(line) == sentinel {
			return true
		}
	}
	return false
}

// ScanCompleted walks resultsDir and returns the names of run directories
// whose logs show a clean finish, sorted.
func ScanCompleted(resultsDir string) ([]string, error) {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", resultsDir, err)
	}

	var completed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if Completed(filepath.Join(resultsDir, entry.Name())) {
			completed = append(completed, entry.Name())
		}
	}
	sort.Strings(completed)
	return completed, nil
}
