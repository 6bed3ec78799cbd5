package foamdict

import (
	"sort"
	"strings"
)

// Change records the value text of one statement before and after a
// substitution pass.
type Change struct {
	Old string
	New string
}

// Result reports the outcome of one substitution pass over one file.
type Result struct {
	// Applied maps each requested key (or block name, for block passes)
	// that was located to its old and new value text.
	Applied map[string]Change
	// Missing lists the requested keys that were never matched, in sorted
	// order. A missing key is an expected condition, not an error.
	Missing []string
}

// Apply rewrites the value of each statement whose key appears in values.
// The scan is a single linear pass: the first line matching a requested key
// wins, the key is consumed, and scanning continues without restarting, so
// a line is modified at most once per pass. Keys still unresolved at end of
// file are reported in Result.Missing.
func Apply(lines []Line, values map[string]string) ([]Line, Result) {
	pending := make(map[string]string, len(values))
	for k, v := range values {
		pending[k] = v
	}

	out := make([]Line, len(lines))
	res := Result{Applied: make(map[string]Change)}

	for i, l := range lines {
		if l.IsEntry {
			if newValue, ok := pending[l.Key]; ok {
				res.Applied[l.Key] = Change{Old: l.Value, New: newValue}
				delete(pending, l.Key)
				out[i] = rewrite(l, newValue)
				continue
			}
		}
		out[i] = l
	}

	res.Missing = sortedKeys(pending)
	return out, res
}

// ApplyBlocks rewrites one sub-key inside named brace-delimited blocks. The
// scanner has two states: outside any block, and inside the block whose
// name matched a requested block exactly (on its own trimmed line). While
// inside, the first line beginning with subKey is replaced by a freshly
// formatted statement; the block-closing token returns the scanner to the
// outside state. Everything else is copied through unchanged.
func ApplyBlocks(lines []Line, subKey string, blocks map[string]string) ([]Line, Result) {
	pending := make(map[string]string, len(blocks))
	for k, v := range blocks {
		pending[k] = v
	}

	out := make([]Line, len(lines))
	res := Result{Applied: make(map[string]Change)}

	inside := false
	current := ""

	for i, l := range lines {
		trimmed := strings.TrimSpace(l.Raw)

		if !inside {
			if _, ok := pending[trimmed]; ok {
				inside = true
				current = trimmed
			}
			out[i] = l
			continue
		}

		if strings.HasPrefix(trimmed, "}") {
			inside = false
			current = ""
			out[i] = l
			continue
		}

		if strings.HasPrefix(trimmed, subKey) {
			newValue, ok := pending[current]
			if ok {
				old := l.Value
				if !l.IsEntry {
					old = trimmed
				}
				res.Applied[current] = Change{Old: old, New: newValue}
				delete(pending, current)
				out[i] = rewrite(Line{Raw: l.Raw, Indent: indentOf(l.Raw), Key: subKey}, newValue)
				// Stay inside until the closing brace, but the block's
				// request is consumed so further subKey lines pass through.
				continue
			}
		}
		out[i] = l
	}

	res.Missing = sortedKeys(pending)
	return out, res
}

// rewrite produces the replacement line for a matched statement, keeping
// the original indentation and realigning the value token.
func rewrite(l Line, value string) Line {
	raw := FormatEntry(l.Indent, l.Key, value)
	return Line{
		Raw:     raw,
		Indent:  l.Indent,
		Key:     l.Key,
		Value:   value,
		IsEntry: true,
	}
}

func indentOf(raw string) string {
	return raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
