// Package native parses and prints the host language (ArkTS and the
// TypeScript/JavaScript family) and reports the template literals that can
// be handed to another formatter.
package native

import "strings"

// File is a parsed source file.
type File struct {
	Name   string
	Source string
	Tokens []Token
	// pairs maps the index of every bracket token to its partner.
	pairs map[int]int
}

// Template is a template literal found in a File.
type Template struct {
	// Index is the token index of the literal.
	Index int
	// Tag is the dotted tag expression in front of the literal, or empty.
	Tag string
	// Start and End delimit the literal including its backticks.
	Start int
	End   int
	// Substitutions reports whether the literal contains ${...}.
	Substitutions bool
}

// Content returns the raw text between the backticks.
func (t Template) Content(src string) string {
	return src[t.Start+1 : t.End-1]
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}"} //nolint:gochecknoglobals // static table

// Parse tokenizes src and checks that its brackets balance.
func Parse(name, src string) (*File, error) {
	toks, err := lex(name, src)
	if err != nil {
		return nil, err
	}
	f := &File{Name: name, Source: src, Tokens: toks, pairs: make(map[int]int)}
	var open []int
	for i, t := range toks {
		if t.Kind != KindPunct {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			open = append(open, i)
		case ")", "]", "}":
			if len(open) == 0 {
				return nil, newSyntaxError(name, src, t.Start, "unexpected %q", t.Text)
			}
			o := open[len(open)-1]
			if want := closers[toks[o].Text]; want != t.Text {
				return nil, newSyntaxError(name, src, t.Start, "expected %q, found %q", want, t.Text)
			}
			open = open[:len(open)-1]
			f.pairs[o] = i
			f.pairs[i] = o
		}
	}
	if len(open) > 0 {
		o := toks[open[len(open)-1]]
		return nil, newSyntaxError(name, src, o.Start, "unclosed %q", o.Text)
	}
	return f, nil
}

// Templates returns every template literal of the file in source order.
func (f *File) Templates() []Template {
	var out []Template
	for i, t := range f.Tokens {
		if t.Kind != KindTemplate {
			continue
		}
		out = append(out, Template{
			Index:         i,
			Tag:           f.tagBefore(i),
			Start:         t.Start,
			End:           t.End,
			Substitutions: t.Substitutions,
		})
	}
	return out
}

// tagBefore collects an identifier chain such as styled.div directly in
// front of token i.
func (f *File) tagBefore(i int) string {
	var parts []string
	j := i - 1
	for j >= 0 {
		t := f.Tokens[j]
		if t.Kind != KindIdent || exprKeywords[t.Text] {
			break
		}
		parts = append(parts, t.Text)
		if j == 0 || !f.Tokens[j-1].IsPunct(".") {
			break
		}
		j -= 2
	}
	if len(parts) == 0 {
		return ""
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.Join(parts, ".")
}
