package native

import (
	"fmt"
	"strings"
)

// Skeleton is printed output split at the template literals that were cut
// out of it. Cut literal k sits between Segments[k] and Segments[k+1]; the
// opening backtick ends Segments[k] and the closing one starts
// Segments[k+1].
type Skeleton struct {
	Segments []string
	// Indents holds the indentation of the line each cut literal opens on.
	Indents []string
}

// Format prints f and applies the final newline policy.
func Format(f *File, opts Options) (string, error) {
	s, err := Print(f, opts, nil)
	if err != nil {
		return "", err
	}
	return Finish(s.Segments[0], opts), nil
}

// Finish applies the trailing newline policy to complete output.
func Finish(code string, opts Options) string {
	code = strings.TrimRight(code, " \t\r\n")
	if opts.InsertFinalNewline && code != "" {
		return code + "\n"
	}
	return code
}

// Print lays out f. Every index in cuts must be the token index of a
// template literal; the literal's content is omitted and its position
// becomes a segment boundary.
func Print(f *File, opts Options, cuts []int) (*Skeleton, error) {
	p := &printer{
		f:        f,
		toks:     f.Tokens,
		unit:     opts.IndentUnit(),
		cuts:     make(map[int]bool, len(cuts)),
		stack:    []frame{{open: -1, block: true}},
		prev:     -1,
		prevCode: -1,
		prefix:   make([]bool, len(f.Tokens)),
		postfix:  make([]bool, len(f.Tokens)),
	}
	for _, c := range cuts {
		if c < 0 || c >= len(f.Tokens) || f.Tokens[c].Kind != KindTemplate {
			return nil, fmt.Errorf("token %d is not a template literal", c)
		}
		p.cuts[c] = true
	}
	p.print()
	p.skel.Segments = append(p.skel.Segments, p.out.String())
	return &p.skel, nil
}

type frame struct {
	open     int
	block    bool
	indented bool
	ternary  int
}

type printer struct {
	f    *File
	toks []Token
	unit string
	cuts map[int]bool

	out  strings.Builder
	skel Skeleton

	stack      []frame
	prev       int
	prevCode   int
	forceBreak bool
	lineIndent string

	prefix  []bool
	postfix []bool
}

// ambiguous tokens keep the spacing found in the source: < and > may be
// type brackets or comparisons, * may be a generator marker.
var ambiguous = map[string]bool{"<": true, ">": true, ">>": true, ">>>": true, "*": true} //nolint:gochecknoglobals // static table

// parenKeywords take a space before an opening parenthesis.
var parenKeywords = map[string]bool{ //nolint:gochecknoglobals // static table
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"with": true, "return": true, "typeof": true, "await": true, "yield": true,
	"function": true, "async": true, "in": true, "of": true, "instanceof": true,
	"delete": true, "void": true, "throw": true, "case": true, "new": true,
	"else": true, "do": true, "extends": true, "as": true,
}

// braceFollowers stay on the line of a closing block brace.
var braceFollowers = map[string]bool{ //nolint:gochecknoglobals // static table
	"else": true, "catch": true, "finally": true, "while": true, "as": true,
	"satisfies": true, "in": true, "of": true, "instanceof": true,
}

//nolint:gocognit,cyclop // single pass over the token stream
func (p *printer) print() {
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		p.assignRole(i)

		ternaryColon := false
		if t.IsPunct(":") && p.top().ternary > 0 {
			p.top().ternary--
			ternaryColon = true
		}
		if t.IsPunct("?") && !p.isOptionalMark(i) {
			p.top().ternary++
		}

		var closed frame
		if isCloser(t) {
			closed = p.pop()
		}

		brk := p.breakBefore(i, closed)
		switch {
		case brk > 0:
			if !isCloser(t) && len(p.stack) > 1 {
				p.top().indented = true
			}
			p.newline(brk, p.level(i, ternaryColon))
		case p.prev >= 0 && p.spaceBefore(i, ternaryColon):
			p.out.WriteByte(' ')
		}

		p.write(i)

		switch {
		case t.IsPunct("{") && p.f.pairs[i] == i+1:
			p.out.WriteString("}")
			i++
			p.prev, p.prevCode = i, i
			p.forceBreak = false
			continue
		case isOpener(t):
			fr := frame{open: i}
			if t.Text == "{" && p.expanded(i) {
				fr.block, fr.indented = true, true
			}
			p.stack = append(p.stack, fr)
		}

		switch {
		case t.Kind == KindLineComment:
			p.forceBreak = true
		case t.Kind == KindBlockComment:
		case t.IsPunct("{"):
			p.forceBreak = p.top().block
		case t.IsPunct(";"):
			p.forceBreak = p.top().block
		case t.IsPunct("}"):
			p.forceBreak = closed.block && p.startsStatement(i+1)
		default:
			p.forceBreak = false
		}
		p.prev = i
		if !t.IsComment() {
			p.prevCode = i
		}
	}
}

func (p *printer) top() *frame { return &p.stack[len(p.stack)-1] }

func (p *printer) pop() frame {
	fr := p.stack[len(p.stack)-1]
	if len(p.stack) > 1 {
		p.stack = p.stack[:len(p.stack)-1]
	}
	return fr
}

func (p *printer) write(i int) {
	t := p.toks[i]
	if !p.cuts[i] {
		p.out.WriteString(t.Text)
		return
	}
	p.out.WriteByte('`')
	p.skel.Segments = append(p.skel.Segments, p.out.String())
	p.skel.Indents = append(p.skel.Indents, p.lineIndent)
	p.out.Reset()
	p.out.WriteByte('`')
}

func (p *printer) newline(brk, level int) {
	p.out.WriteByte('\n')
	if brk > 1 {
		p.out.WriteByte('\n')
	}
	p.lineIndent = strings.Repeat(p.unit, level)
	p.out.WriteString(p.lineIndent)
	p.forceBreak = false
}

// breakBefore returns 0 to stay on the line, 1 for a line break and 2 for
// a break followed by one blank line.
func (p *printer) breakBefore(i int, closed frame) int {
	if p.prev < 0 {
		return 0
	}
	t, prev := p.toks[i], p.toks[p.prev]
	if t.IsComment() && t.Newlines == 0 && prev.Kind != KindLineComment {
		return 0
	}
	brk := 0
	if p.forceBreak || (t.IsPunct("}") && closed.block) {
		brk = 1
	}
	if t.Newlines > 0 && keepsBreak(prev, t) {
		brk = 1
	}
	if brk == 1 && t.Newlines > 1 && !isOpener(prev) && !isCloser(t) {
		brk = 2
	}
	return brk
}

func keepsBreak(prev, t Token) bool {
	switch {
	case t.IsPunct(",") || t.IsPunct(";"):
		return false
	case t.IsPunct("{") && (prev.IsPunct(")") || prev.IsPunct("=>")):
		return false
	case t.Kind == KindIdent && prev.IsPunct("}") &&
		(t.Text == "else" || t.Text == "catch" || t.Text == "finally"):
		return false
	}
	return true
}

// level is the indentation depth of a line starting with token i.
func (p *printer) level(i int, ternaryColon bool) int {
	n := 0
	for _, fr := range p.stack {
		if fr.indented {
			n++
		}
	}
	t := p.toks[i]
	if isCloser(t) || t.IsComment() {
		return n
	}
	if t.IsPunct(".") || t.IsPunct("?.") || ternaryColon ||
		(t.IsPunct("?") && !p.isOptionalMark(i)) || (isContinuationOp(t) && !p.prefix[i]) {
		return n + 1
	}
	if p.prevCode >= 0 && p.prevCode == p.prev {
		prev := p.toks[p.prevCode]
		if isContinuationOp(prev) && !p.prefix[p.prevCode] {
			return n + 1
		}
	}
	return n
}

func isContinuationOp(t Token) bool {
	if t.Kind != KindPunct {
		return false
	}
	switch t.Text {
	case "=", "==", "===", "!=", "!==", "+=", "-=", "*=", "/=", "%=", "**=",
		"<<=", ">>=", ">>>=", "&=", "|=", "^=", "&&=", "||=", "??=",
		"&&", "||", "??", "=>", "+", "-", "*", "/", "%", "**", "|", "&", "^",
		"<=", ">=", "<<":
		return true
	}
	return false
}

//nolint:cyclop,gocyclo // one decision per token class
func (p *printer) spaceBefore(i int, ternaryColon bool) bool {
	t, prev := p.toks[i], p.toks[p.prev]
	if (prev.Kind == KindPunct && ambiguous[prev.Text]) || (t.Kind == KindPunct && ambiguous[t.Text]) {
		return t.Spaced
	}
	if t.Kind == KindPunct {
		switch t.Text {
		case ",", ";", ")", "]", ".", "?.":
			return false
		case "(":
			if p.callee(p.prev) {
				return false
			}
		case "[":
			if p.operandEnd(p.prev) && !(prev.Kind == KindIdent && exprKeywords[prev.Text]) {
				return false
			}
		case ":":
			return ternaryColon
		case "?":
			if p.isOptionalMark(i) {
				return false
			}
		case "++", "--", "!":
			if p.postfix[i] {
				return false
			}
		}
	}
	if t.Kind == KindTemplate && prev.Kind == KindIdent && !exprKeywords[prev.Text] {
		return false
	}
	if prev.Kind == KindPunct {
		switch prev.Text {
		case "(", "[", ".", "?.", "@", "...", "~":
			return false
		case "!", "++", "--", "+", "-":
			if p.prefix[p.prev] {
				// keep "- -x" from collapsing into a decrement
				return (prev.Text == "+" || prev.Text == "-") && t.Kind == KindPunct &&
					strings.HasPrefix(t.Text, prev.Text)
			}
		}
	}
	return true
}

// assignRole marks unary operators as prefix or postfix.
func (p *printer) assignRole(i int) {
	t := p.toks[i]
	if t.Kind != KindPunct {
		return
	}
	operand := p.prevCode >= 0 && p.operandEnd(p.prevCode)
	switch t.Text {
	case "+", "-", "~":
		p.prefix[i] = !operand
	case "!":
		if operand && !t.Spaced {
			p.postfix[i] = true
		} else {
			p.prefix[i] = true
		}
	case "++", "--":
		if operand && t.Newlines == 0 {
			p.postfix[i] = true
		} else {
			p.prefix[i] = true
		}
	}
}

// operandEnd reports whether token j can end an operand.
func (p *printer) operandEnd(j int) bool {
	t := p.toks[j]
	switch t.Kind {
	case KindIdent:
		return !exprKeywords[t.Text]
	case KindNumber, KindString, KindTemplate, KindRegex:
		return true
	case KindPunct:
		return t.Text == ")" || t.Text == "]" || t.Text == "}" || p.postfix[j]
	}
	return false
}

// callee reports whether an opening parenthesis after token j is a call.
func (p *printer) callee(j int) bool {
	t := p.toks[j]
	switch t.Kind {
	case KindIdent:
		return !parenKeywords[t.Text]
	case KindTemplate:
		return true
	case KindPunct:
		return t.Text == ")" || t.Text == "]" || p.postfix[j]
	}
	return false
}

// isOptionalMark reports whether the ? at i marks an optional member or
// parameter rather than opening a conditional expression.
func (p *printer) isOptionalMark(i int) bool {
	for j := i + 1; j < len(p.toks); j++ {
		t := p.toks[j]
		if t.IsComment() {
			continue
		}
		return t.IsPunct(":") || t.IsPunct(")") || t.IsPunct(",") || t.IsPunct(";")
	}
	return true
}

// expanded reports whether the brace at i prints its content on separate
// lines: either the source already breaks after it or it holds statements.
func (p *printer) expanded(i int) bool {
	end := p.f.pairs[i]
	if p.toks[i+1].Newlines > 0 {
		return true
	}
	for k := i + 1; k < end; k++ {
		t := p.toks[k]
		switch {
		case t.IsPunct(";") || t.Kind == KindLineComment:
			return true
		case isOpener(t):
			k = p.f.pairs[k]
		}
	}
	return false
}

// startsStatement reports whether token i, following a closing block
// brace, begins a new statement.
func (p *printer) startsStatement(i int) bool {
	if i >= len(p.toks) {
		return false
	}
	t := p.toks[i]
	if t.IsPunct("@") {
		return true
	}
	return t.Kind == KindIdent && !braceFollowers[t.Text]
}

func isOpener(t Token) bool {
	return t.Kind == KindPunct && (t.Text == "(" || t.Text == "[" || t.Text == "{")
}

func isCloser(t Token) bool {
	return t.Kind == KindPunct && (t.Text == ")" || t.Text == "]" || t.Text == "}")
}
