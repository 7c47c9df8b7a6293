package builtin

import (
	"errors"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mridang/arkfmt/internal/backend"
)

var errTOMLChanged = errors.New("toml: formatting would change the document")

// tomlScan tracks the constructs that span lines.
type tomlScan struct {
	multi string // open multi-line string delimiter
	depth int    // open arrays and inline tables
}

// formatTOML normalizes spacing line by line, keeping comments and key
// order: "key = value", trimmed lines, at most one blank line in a row.
// Lines inside multi-line strings are kept byte for byte. The result must
// decode to the same document as the input.
func formatTOML(src []byte, _ backend.Options) ([]byte, error) {
	var before map[string]any
	if err := toml.Unmarshal(src, &before); err != nil {
		return nil, err
	}

	var out strings.Builder
	var st tomlScan
	blank := false
	for _, line := range strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n") {
		if st.multi != "" {
			out.WriteString(line)
			out.WriteByte('\n')
			st.scan(line)
			continue
		}
		if st.depth > 0 {
			out.WriteString(strings.TrimRight(line, " \t"))
			out.WriteByte('\n')
			st.scan(line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank = out.Len() > 0
			continue
		}
		if blank {
			out.WriteByte('\n')
			blank = false
		}
		if !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "[") {
			if key, value, ok := splitKeyValue(trimmed); ok {
				trimmed = key + " = " + value
			}
		}
		out.WriteString(trimmed)
		out.WriteByte('\n')
		st.scan(trimmed)
	}

	formatted := []byte(out.String())
	var after map[string]any
	if err := toml.Unmarshal(formatted, &after); err != nil {
		return nil, errTOMLChanged
	}
	if !reflect.DeepEqual(before, after) {
		return nil, errTOMLChanged
	}
	return formatted, nil
}

// splitKeyValue cuts a key/value line at the first "=" outside a quoted
// key.
func splitKeyValue(line string) (string, string, bool) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '=':
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", "", false
}

// scan advances the state over one line.
func (st *tomlScan) scan(line string) {
	for i := 0; i < len(line); i++ {
		if st.multi != "" {
			if st.multi == `"""` && line[i] == '\\' {
				i++
				continue
			}
			if strings.HasPrefix(line[i:], st.multi) {
				i += len(st.multi) - 1
				st.multi = ""
			}
			continue
		}
		switch c := line[i]; c {
		case '#':
			return
		case '"', '\'':
			delim := strings.Repeat(string(c), 3)
			if strings.HasPrefix(line[i:], delim) {
				st.multi = delim
				i += 2
				continue
			}
			i = closingQuote(line, i)
		case '[', '{':
			st.depth++
		case ']', '}':
			if st.depth > 0 {
				st.depth--
			}
		}
	}
}

// closingQuote returns the index of the quote closing the single-line
// string opened at i, or the last index when it is not closed.
func closingQuote(line string, i int) int {
	quote := line[i]
	for j := i + 1; j < len(line); j++ {
		switch {
		case line[j] == '\\' && quote == '"':
			j++
		case line[j] == quote:
			return j
		}
	}
	return len(line) - 1
}
