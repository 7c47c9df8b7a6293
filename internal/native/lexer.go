package native

import (
	"strings"
	"unicode/utf8"
)

// Kind is the lexical class of a token.
type Kind int

const (
	KindIdent Kind = iota
	KindNumber
	KindString
	KindTemplate
	KindRegex
	KindPunct
	KindLineComment
	KindBlockComment
)

// Token is a lexeme together with the layout that preceded it in the source.
type Token struct {
	Kind  Kind
	Text  string
	Start int
	End   int
	// Newlines counts the line breaks between the previous token and this one.
	Newlines int
	// Spaced reports whether any whitespace precedes the token.
	Spaced bool
	// Substitutions is set on template literals that contain ${...}.
	Substitutions bool
}

// IsPunct reports whether t is the punctuator s.
func (t Token) IsPunct(s string) bool {
	return t.Kind == KindPunct && t.Text == s
}

// IsComment reports whether t is a line or block comment.
func (t Token) IsComment() bool {
	return t.Kind == KindLineComment || t.Kind == KindBlockComment
}

// punctuators sorted longest first so that scanning is greedy.
var punctuators = []string{ //nolint:gochecknoglobals // static table
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@",
}

// exprKeywords are words after which an expression starts, so a following
// slash opens a regular expression and +/- are unary.
var exprKeywords = map[string]bool{ //nolint:gochecknoglobals // static table
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "instanceof": true, "new": true, "delete": true,
	"void": true, "throw": true, "yield": true, "await": true, "extends": true,
}

type lexer struct {
	file string
	src  string
	pos  int
	toks []Token
}

func lex(file, src string) ([]Token, error) {
	l := &lexer{file: file, src: src}
	if strings.HasPrefix(src, "\uFEFF") {
		l.pos = len("\uFEFF")
	}
	for {
		newlines, spaced := l.skipSpace()
		if l.pos >= len(l.src) {
			return l.toks, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tok.Newlines = newlines
		tok.Spaced = spaced
		l.toks = append(l.toks, tok)
	}
}

func (l *lexer) skipSpace() (int, bool) {
	newlines := 0
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\n':
			newlines++
			l.pos++
		case ' ', '\t', '\r', '\v', '\f':
			l.pos++
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if isSpaceRune(r) {
				if r == '\u2028' || r == '\u2029' {
					newlines++
				}
				l.pos += size
				continue
			}
			return newlines, l.pos > start
		}
	}
	return newlines, l.pos > start
}

func (l *lexer) next() (Token, error) {
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '/' && l.peek(1) == '/':
		end := strings.IndexByte(l.src[start:], '\n')
		if end < 0 {
			end = len(l.src) - start
		}
		return l.emit(KindLineComment, start, start+end), nil
	case c == '/' && l.peek(1) == '*':
		end := strings.Index(l.src[start+2:], "*/")
		if end < 0 {
			return Token{}, l.errorf(start, "unterminated comment")
		}
		return l.emit(KindBlockComment, start, start+2+end+2), nil
	case c == '/' && l.regexAllowed():
		end, err := l.scanRegex(start)
		if err != nil {
			return Token{}, err
		}
		return l.emit(KindRegex, start, end), nil
	case c == '\'' || c == '"':
		end, err := l.scanString(start)
		if err != nil {
			return Token{}, err
		}
		return l.emit(KindString, start, end), nil
	case c == '`':
		end, subst, err := l.scanTemplate(start)
		if err != nil {
			return Token{}, err
		}
		tok := l.emit(KindTemplate, start, end)
		tok.Substitutions = subst
		return tok, nil
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		return l.emit(KindNumber, start, l.scanNumber(start)), nil
	case c == '#' && isIdentStart(l.runeAt(start+1)):
		return l.emit(KindIdent, start, l.scanIdent(start+1)), nil
	case isIdentStart(l.runeAt(start)):
		return l.emit(KindIdent, start, l.scanIdent(start)), nil
	}
	for _, p := range punctuators {
		if strings.HasPrefix(l.src[start:], p) {
			return l.emit(KindPunct, start, start+len(p)), nil
		}
	}
	r, _ := utf8.DecodeRuneInString(l.src[start:])
	return Token{}, l.errorf(start, "unexpected character %q", r)
}

func (l *lexer) emit(kind Kind, start, end int) Token {
	l.pos = end
	return Token{Kind: kind, Text: l.src[start:end], Start: start, End: end}
}

func (l *lexer) peek(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *lexer) runeAt(i int) rune {
	if i >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[i:])
	return r
}

// regexAllowed decides between division and a regular expression literal
// from the previous significant token.
func (l *lexer) regexAllowed() bool {
	for i := len(l.toks) - 1; i >= 0; i-- {
		t := l.toks[i]
		if t.IsComment() {
			continue
		}
		switch t.Kind {
		case KindNumber, KindString, KindTemplate, KindRegex:
			return false
		case KindIdent:
			return exprKeywords[t.Text]
		case KindPunct:
			return t.Text != ")" && t.Text != "]" && t.Text != "}" &&
				t.Text != "++" && t.Text != "--"
		}
	}
	return true
}

func (l *lexer) scanRegex(start int) (int, error) {
	inClass := false
	i := start + 1
	for i < len(l.src) {
		switch c := l.src[i]; c {
		case '\\':
			i += 2
			continue
		case '\n':
			return 0, l.errorf(start, "unterminated regular expression")
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(l.src) && isIdentPart(rune(l.src[i])) {
					i++
				}
				return i, nil
			}
		}
		i++
	}
	return 0, l.errorf(start, "unterminated regular expression")
}

func (l *lexer) scanString(start int) (int, error) {
	quote := l.src[start]
	i := start + 1
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			return 0, l.errorf(start, "unterminated string literal")
		case quote:
			return i + 1, nil
		}
		i++
	}
	return 0, l.errorf(start, "unterminated string literal")
}

// scanTemplate returns the offset after the closing backtick of the
// template literal starting at start.
func (l *lexer) scanTemplate(start int) (int, bool, error) {
	subst := false
	i := start + 1
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '`':
			return i + 1, subst, nil
		case '$':
			if i+1 < len(l.src) && l.src[i+1] == '{' {
				subst = true
				end, err := l.skipSubstitution(i + 2)
				if err != nil {
					return 0, false, err
				}
				i = end
				continue
			}
		}
		i++
	}
	return 0, false, l.errorf(start, "unterminated template literal")
}

// skipSubstitution returns the offset after the } closing a ${ that ends
// right before i.
func (l *lexer) skipSubstitution(i int) (int, error) {
	open := i - 2
	depth := 0
	for i < len(l.src) {
		switch l.src[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i + 1, nil
			}
			depth--
		case '\'', '"':
			end, err := l.scanString(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		case '`':
			end, _, err := l.scanTemplate(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		case '/':
			if i+1 < len(l.src) && l.src[i+1] == '*' {
				end := strings.Index(l.src[i+2:], "*/")
				if end < 0 {
					return 0, l.errorf(i, "unterminated comment")
				}
				i += 2 + end + 2
				continue
			}
			if i+1 < len(l.src) && l.src[i+1] == '/' {
				end := strings.IndexByte(l.src[i:], '\n')
				if end < 0 {
					return 0, l.errorf(open, "unterminated template substitution")
				}
				i += end
				continue
			}
		}
		i++
	}
	return 0, l.errorf(open, "unterminated template substitution")
}

func (l *lexer) scanNumber(start int) int {
	i := start
	hex := strings.HasPrefix(l.src[start:], "0x") || strings.HasPrefix(l.src[start:], "0X")
	for i < len(l.src) {
		c := l.src[i]
		switch {
		case isDigit(c) || isLetter(c) || c == '_' || c == '.':
			i++
		case (c == '+' || c == '-') && !hex && i > start && (l.src[i-1] == 'e' || l.src[i-1] == 'E'):
			i++
		default:
			return i
		}
	}
	return i
}

func (l *lexer) scanIdent(start int) int {
	i := start
	for i < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[i:])
		if !isIdentPart(r) {
			break
		}
		i += size
	}
	return i
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	return newSyntaxError(l.file, l.src, offset, format, args...)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r < utf8.RuneSelf && isLetter(byte(r))) ||
		(r >= utf8.RuneSelf && r != utf8.RuneError && !isSpaceRune(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r < utf8.RuneSelf && isDigit(byte(r)))
}

func isSpaceRune(r rune) bool {
	return r == '\u00A0' || r == '\u2028' || r == '\u2029' || r == '\uFEFF'
}
