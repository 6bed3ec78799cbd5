package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/foamstudy/internal/patch"
)

// Artifact names written inside each case directory.
const (
	SubstitutionLogName = "substitutions.log"
	ResolvedName        = "resolved_parameters.json"
)

// RunResult is one row of the study summary.
type RunResult struct {
	Name       string             `json:"run"`
	Parameters map[string]float64 `json:"parameters"`
	Resolved   map[string]float64 `json:"resolved,omitempty"`
	Status     string             `json:"status"`
	ExitCode   int                `json:"exit_code,omitempty"`
	DurationS  float64            `json:"duration_seconds,omitempty"`
}

// Summary aggregates one study execution. ParameterOrder preserves the sweep
// declaration order for tabular outputs; JSON readers key by name instead.
type Summary struct {
	Study          string      `json:"study"`
	ParameterOrder []string    `json:"parameters"`
	Runs           []RunResult `json:"runs"`
}

// Counts tallies runs per status.
func (s *Summary) Counts() map[string]int {
	counts := make(map[string]int)
	for _, r := range s.Runs {
		counts[r.Status]++
	}
	return counts
}

// WriteSubstitutionLog writes the human-readable substitution outcomes into
// the case directory.
func WriteSubstitutionLog(caseDir string, log patch.Log) error {
	path := filepath.Join(caseDir, SubstitutionLogName)
	if err := os.WriteFile(path, []byte(log.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", SubstitutionLogName, err)
	}
	return nil
}

// WriteResolved snapshots the values actually written into the case, after
// unit conversion and derivation, as JSON with stable key order.
func WriteResolved(caseDir string, resolved map[string]float64) error {
	data, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(caseDir, ResolvedName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ResolvedName, err)
	}
	return nil
}

// WriteSummaryJSON writes the full study summary.
func WriteSummaryJSON(path string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// WriteCSV writes one row per run: name, swept parameters in declaration
// order, then status, exit code, and duration.
func WriteCSV(path string, summary *Summary) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()

	w := csv.NewWriter(fp)

	header := append([]string{"run"}, summary.ParameterOrder...)
	header = append(header, "status", "exit_code", "duration_seconds")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range summary.Runs {
		row := make([]string, 0, len(header))
		row = append(row, r.Name)
		for _, p := range summary.ParameterOrder {
			row = append(row, strconv.FormatFloat(r.Parameters[p], 'g', -1, 64))
		}
		row = append(row,
			r.Status,
			strconv.Itoa(r.ExitCode),
			strconv.FormatFloat(r.DurationS, 'f', 1, 64),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
