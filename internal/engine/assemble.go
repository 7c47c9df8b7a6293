package engine

import (
	"strings"

	"github.com/mridang/arkfmt/internal/native"
)

// assemble joins the skeleton segments with the embedded units. Unit k
// fills the gap between Segments[k] and Segments[k+1]; a failed
// delegation keeps the unit's raw text.
func assemble(skel *native.Skeleton, units []Unit, results []delegation, unit string) string {
	var b strings.Builder
	b.WriteString(skel.Segments[0])
	for k, u := range units {
		text := u.Raw
		if results[k].ok {
			text = reindent(results[k].text, skel.Indents[k], unit)
		}
		b.WriteString(text)
		b.WriteString(skel.Segments[k+1])
	}
	return b.String()
}

// reindent places formatted embedded code inside a template literal that
// opens on a line indented by lineIndent. Single-line code stays inline.
// Multi-line code starts on a new line one level deeper and the closing
// backtick goes back to lineIndent.
func reindent(code, lineIndent, unit string) string {
	code = trimEmbedded(code)
	if !strings.Contains(code, "\n") {
		return code
	}
	indent := lineIndent + unit
	lines := strings.Split(code, "\n")
	var b strings.Builder
	b.WriteByte('\n')
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l != "" {
			b.WriteString(indent)
			b.WriteString(l)
		}
		b.WriteByte('\n')
	}
	b.WriteString(lineIndent)
	return b.String()
}

// trimEmbedded drops the leading newlines and trailing whitespace a
// formatter adds around a document.
func trimEmbedded(code string) string {
	return strings.TrimRight(strings.TrimLeft(code, "\r\n"), " \t\r\n")
}
