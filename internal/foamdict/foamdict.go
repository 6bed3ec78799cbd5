package foamdict

import "strings"

// valueColumn is the column at which replacement value tokens are aligned,
// matching the layout convention of the upstream case templates.
const valueColumn = 16

// Line is one physical line of a dictionary file. Opaque lines keep only
// Raw; key-value statements additionally carry the parsed key, the value
// text up to the terminating semicolon, and the leading indentation.
type Line struct {
	Raw     string
	Indent  string
	Key     string
	Value   string
	IsEntry bool
}

// Parse splits file content into classified lines. It never fails: content
// that does not match the statement shape is carried as opaque text.
func Parse(content string) []Line {
	rawLines := strings.Split(content, "\n")
	lines := make([]Line, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = classify(raw)
	}
	return lines
}

// Render reassembles lines into file content. Untouched lines come back
// byte-identical to the input.
func Render(lines []Line) string {
	raw := make([]string, len(lines))
	for i, l := range lines {
		raw[i] = l.Raw
	}
	return strings.Join(raw, "\n")
}

// FormatEntry builds a statement line with the value token aligned at the
// fixed column. Keys wider than the column still get one separating space.
func FormatEntry(indent, key, value string) string {
	pad := valueColumn - len(key)
	if pad < 1 {
		pad = 1
	}
	return indent + key + strings.Repeat(" ", pad) + value + ";"
}

// classify decides whether one raw line is a key-value statement. A
// statement starts with an identifier followed by whitespace and terminates
// its value at a semicolon on the same line; multi-line values are treated
// as opaque. Block-open ("name {") and block-close ("}") lines never match
// because brace characters disqualify the line.
func classify(raw string) Line {
	l := Line{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
		return l
	}
	if strings.ContainsAny(trimmed, "{}") {
		return l
	}

	key := leadingIdentifier(trimmed)
	if key == "" || len(key) == len(trimmed) {
		return l
	}
	rest := trimmed[len(key):]
	if rest[0] != ' ' && rest[0] != '\t' {
		return l
	}
	semi := strings.IndexByte(rest, ';')
	if semi < 0 {
		return l
	}
	value := strings.TrimSpace(rest[:semi])
	if value == "" {
		return l
	}

	l.Indent = raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
	l.Key = key
	l.Value = value
	l.IsEntry = true
	return l
}

// leadingIdentifier returns the identifier token at the start of s, or ""
// if s does not start with one.
func leadingIdentifier(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		isDigit := c >= '0' && c <= '9'
		if i == 0 {
			if !isAlpha {
				return ""
			}
			continue
		}
		if !isAlpha && !isDigit {
			return s[:i]
		}
	}
	return s
}
