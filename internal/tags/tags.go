// Package tags maps the tag of a template literal to the parser that
// understands the embedded code.
package tags

import "strings"

// Parser identifiers of the built-in table.
const (
	ParserCSS      = "css"
	ParserGraphQL  = "graphql"
	ParserHTML     = "html"
	ParserMarkdown = "markdown"
)

var builtin = map[string]string{ //nolint:gochecknoglobals // static table
	// style sheets
	"css":               ParserCSS,
	"styled":            ParserCSS,
	"keyframes":         ParserCSS,
	"createGlobalStyle": ParserCSS,
	"injectGlobal":      ParserCSS,
	// query languages
	"gql":     ParserGraphQL,
	"graphql": ParserGraphQL,
	// markup
	"html": ParserHTML,
	// prose
	"markdown": ParserMarkdown,
	"md":       ParserMarkdown,
}

// Resolver resolves tag names. The zero value is not usable; use Default
// or Extend.
type Resolver struct {
	table map[string]string
}

// Default returns a resolver backed only by the built-in table.
func Default() *Resolver {
	return &Resolver{table: builtin}
}

// Resolve returns the parser for tag. A dotted tag such as "styled.div"
// falls back to its head identifier. Unknown tags are not an error: the
// caller must leave the literal untouched.
func (r *Resolver) Resolve(tag string) (string, bool) {
	if p, ok := r.table[tag]; ok {
		return p, true
	}
	if head, _, found := strings.Cut(tag, "."); found {
		p, ok := r.table[head]
		return p, ok
	}
	return "", false
}

// Extend returns a resolver where every parser identifier discovered from
// a backend is also accepted as a tag of the same name. Built-in tags keep
// their mapping.
func (r *Resolver) Extend(parsers []string) *Resolver {
	if len(parsers) == 0 {
		return r
	}
	table := make(map[string]string, len(r.table)+len(parsers))
	for _, p := range parsers {
		if p == "" {
			continue
		}
		table[p] = p
	}
	for k, v := range r.table {
		table[k] = v
	}
	return &Resolver{table: table}
}

// IsBuiltin reports whether tag is part of the static table.
func IsBuiltin(tag string) bool {
	_, ok := builtin[tag]
	return ok
}
