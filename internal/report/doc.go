// Package report writes the per-run and per-study result artifacts: the
// substitution log and resolved-value snapshot inside each case directory,
// and the study summary as JSON, CSV, and an Excel workbook.
package report
