package patch

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of one requested substitution.
type Status string

const (
	// StatusApplied means the key was located and its value rewritten.
	StatusApplied Status = "applied"
	// StatusNotFound means the key (or its file) was absent. Template
	// trees legitimately vary across solver configurations, so this is a
	// warning, never an error.
	StatusNotFound Status = "not-found"
	// StatusSkipped means the write was abandoned deliberately, e.g. a
	// derived value with a malformed input or a key already claimed by an
	// earlier parameter in the same batch.
	StatusSkipped Status = "skipped"
)

// Record is one outcome in the substitution log.
type Record struct {
	Parameter string
	File      string
	Key       string
	Old       string
	New       string
	Status    Status
	Reason    string
}

// Log is the ordered sequence of outcomes of one substitution pass over
// one case directory.
type Log []Record

// Applied counts records with StatusApplied.
func (l Log) Applied() int {
	n := 0
	for _, r := range l {
		if r.Status == StatusApplied {
			n++
		}
	}
	return n
}

// NotFound returns the records whose keys were never located.
func (l Log) NotFound() []Record {
	var out []Record
	for _, r := range l {
		if r.Status == StatusNotFound {
			out = append(out, r)
		}
	}
	return out
}

// String renders the log as the human-readable per-run outcome artifact.
func (l Log) String() string {
	var b strings.Builder
	for _, r := range l {
		switch r.Status {
		case StatusApplied:
			fmt.Fprintf(&b, "applied    %s  %s: %s -> %s  (%s)\n", r.File, r.Key, r.Old, r.New, r.Parameter)
		case StatusNotFound:
			fmt.Fprintf(&b, "not-found  %s  %s  (%s)\n", r.File, r.Key, r.Parameter)
		case StatusSkipped:
			fmt.Fprintf(&b, "skipped    %s  %s: %s  (%s)\n", r.File, r.Key, r.Reason, r.Parameter)
		}
	}
	return b.String()
}
