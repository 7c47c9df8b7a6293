package builtin

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/mridang/arkfmt/internal/backend"
)

const (
	// minInterpolationTokens is the size of the smallest "${ x }" sequence.
	minInterpolationTokens = 5
	// legacyTypeTokens is the size of a pre-0.12 quoted type such as "string".
	legacyTypeTokens = 3
)

// hclConfig holds the HCL options. The canonical HCL layout leaves nothing
// to configure besides the terraform-style expression cleanups.
type hclConfig struct {
	// UnwrapInterpolations turns "${var.x}" into var.x and normalizes
	// variable type expressions the way terraform fmt does.
	UnwrapInterpolations bool `json:"hclUnwrapInterpolations"`
}

func defaultHCLConfig() hclConfig {
	return hclConfig{UnwrapInterpolations: true}
}

// formatHCL validates src as native HCL syntax and prints it in canonical
// layout.
func formatHCL(src []byte, opts backend.Options) ([]byte, error) {
	cfg := defaultHCLConfig()
	decodeConfig(opts, &cfg)

	if _, diags := hclsyntax.ParseConfig(src, opts.Filepath(), hcl.InitialPos); diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}
	f, diags := hclwrite.ParseConfig(src, opts.Filepath(), hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}
	if f == nil {
		return nil, errors.New("failed to parse HCL config")
	}
	if cfg.UnwrapInterpolations {
		cleanBody(f.Body(), "")
	}
	return f.Bytes(), nil
}

// cleanBody rewrites attribute expressions in body and its nested blocks.
// blockType is the type of the enclosing top-level block, if any.
func cleanBody(body *hclwrite.Body, blockType string) {
	for name, attr := range body.Attributes() {
		tokens := attr.Expr().BuildTokens(nil)
		if blockType == "variable" && name == "type" {
			body.SetAttributeRaw(name, normalizeTypeExpr(tokens))
			continue
		}
		body.SetAttributeRaw(name, unwrapInterpolation(tokens))
	}
	for _, block := range body.Blocks() {
		// Re-setting the labels drops interleaved comments and quotes them.
		block.SetLabels(block.Labels())
		inner := blockType
		if inner == "" {
			inner = block.Type()
		} else {
			inner = "nested"
		}
		cleanBody(block.Body(), inner)
	}
}

// unwrapInterpolation turns a lone "${ expr }" string into expr.
func unwrapInterpolation(tokens hclwrite.Tokens) hclwrite.Tokens {
	if len(tokens) < minInterpolationTokens {
		return tokens
	}
	if tokens[0].Type != hclsyntax.TokenOQuote ||
		tokens[1].Type != hclsyntax.TokenTemplateInterp ||
		tokens[len(tokens)-2].Type != hclsyntax.TokenTemplateSeqEnd ||
		tokens[len(tokens)-1].Type != hclsyntax.TokenCQuote {
		return tokens
	}
	inside := tokens[2 : len(tokens)-2]
	if !singleInterpolation(inside) {
		return tokens
	}
	return parenthesizeMultiLine(trimNewlines(inside))
}

// singleInterpolation reports whether inside holds exactly one
// interpolated expression and no literal text at the outer quoting level.
func singleInterpolation(inside hclwrite.Tokens) bool {
	quotes := 0
	for _, tok := range inside {
		switch {
		case tok.Type == hclsyntax.TokenOQuote:
			quotes++
		case tok.Type == hclsyntax.TokenCQuote:
			quotes--
		case quotes > 0:
			// nested strings may hold their own interpolations
		case tok.Type == hclsyntax.TokenTemplateInterp,
			tok.Type == hclsyntax.TokenTemplateSeqEnd,
			tok.Type == hclsyntax.TokenQuotedLit:
			return false
		}
	}
	return true
}

// parenthesizeMultiLine wraps a multi-line expression in parentheses so it
// still parses once unwrapped.
func parenthesizeMultiLine(tokens hclwrite.Tokens) hclwrite.Tokens {
	multiLine := false
	for _, tok := range tokens {
		if tok.Type == hclsyntax.TokenNewline {
			multiLine = true
			break
		}
	}
	if !multiLine {
		return tokens
	}
	if len(tokens) > 1 && tokens[0].Type == hclsyntax.TokenOParen &&
		tokens[len(tokens)-1].Type == hclsyntax.TokenCParen {
		return tokens
	}
	out := make(hclwrite.Tokens, 0, len(tokens)+2)
	out = append(out, punct(hclsyntax.TokenOParen, "("))
	out = append(out, tokens...)
	return append(out, punct(hclsyntax.TokenCParen, ")"))
}

// normalizeTypeExpr spells collection types with an explicit element type
// and replaces legacy quoted type names.
func normalizeTypeExpr(tokens hclwrite.Tokens) hclwrite.Tokens {
	switch len(tokens) {
	case 1:
		kw := tokens[0]
		if kw.Type != hclsyntax.TokenIdent {
			return tokens
		}
		switch name := string(kw.Bytes); name {
		case "list", "map", "set":
			return typeCall(name, "any")
		}
	case legacyTypeTokens:
		if tokens[0].Type != hclsyntax.TokenOQuote ||
			tokens[1].Type != hclsyntax.TokenQuotedLit ||
			tokens[2].Type != hclsyntax.TokenCQuote {
			return tokens
		}
		// Quoted types predate "any"; their collections held strings.
		switch name := string(tokens[1].Bytes); name {
		case "string":
			return hclwrite.Tokens{ident("string")}
		case "list", "map":
			return typeCall(name, "string")
		}
	}
	return tokens
}

func typeCall(name, elem string) hclwrite.Tokens {
	return hclwrite.Tokens{
		ident(name),
		punct(hclsyntax.TokenOParen, "("),
		ident(elem),
		punct(hclsyntax.TokenCParen, ")"),
	}
}

func ident(name string) *hclwrite.Token {
	return &hclwrite.Token{Type: hclsyntax.TokenIdent, Bytes: []byte(name)}
}

func punct(typ hclsyntax.TokenType, text string) *hclwrite.Token {
	return &hclwrite.Token{Type: typ, Bytes: []byte(text)}
}

func trimNewlines(tokens hclwrite.Tokens) hclwrite.Tokens {
	start, end := 0, len(tokens)
	for start < end && tokens[start].Type == hclsyntax.TokenNewline {
		start++
	}
	for end > start && tokens[end-1].Type == hclsyntax.TokenNewline {
		end--
	}
	return tokens[start:end]
}
