package builtin

import (
	"bytes"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/mridang/arkfmt/internal/backend"
)

// shellConfig maps a subset of the shfmt options. Defaults match shfmt.
type shellConfig struct {
	IndentWidth      *int   `json:"indentWidth"`      // nil or useTabs: tabs
	UseTabs          bool   `json:"useTabs"`          // indent with tabs
	BinaryNextLine   bool   `json:"binaryNextLine"`   // binary ops start the line
	SpaceRedirects   bool   `json:"spaceRedirects"`   // space before redirects
	KeepPadding      bool   `json:"keepPadding"`      // keep alignment spaces
	FunctionNextLine bool   `json:"functionNextLine"` // function body on next line
	SwitchCaseIndent bool   `json:"switchCaseIndent"` // indent switch cases
	KeepComments     bool   `json:"keepComments"`     // preserve comments
	Variant          string `json:"shellVariant"`     // "auto", "posix", "bash", "mksh"
}

func defaultShellConfig() shellConfig {
	return shellConfig{
		KeepComments: true,
		Variant:      "auto",
	}
}

func formatShell(src []byte, opts backend.Options) ([]byte, error) {
	cfg := defaultShellConfig()
	decodeConfig(opts, &cfg)

	parser := syntax.NewParser(shellParserOptions(cfg)...)
	file, err := parser.Parse(bytes.NewReader(src), opts.Filepath())
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := syntax.NewPrinter(shellPrinterOptions(cfg)...).Print(&out, file); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func shellParserOptions(cfg shellConfig) []syntax.ParserOption {
	var opts []syntax.ParserOption
	switch strings.ToLower(strings.TrimSpace(cfg.Variant)) {
	case "posix":
		opts = append(opts, syntax.Variant(syntax.LangPOSIX))
	case "bash":
		opts = append(opts, syntax.Variant(syntax.LangBash))
	case "mksh":
		opts = append(opts, syntax.Variant(syntax.LangMirBSDKorn))
	}
	if cfg.KeepComments {
		opts = append(opts, syntax.KeepComments(true))
	}
	return opts
}

//goland:noinspection GoDeprecation
func shellPrinterOptions(cfg shellConfig) []syntax.PrinterOption {
	var opts []syntax.PrinterOption
	if !cfg.UseTabs && cfg.IndentWidth != nil && *cfg.IndentWidth > 0 {
		opts = append(opts, syntax.Indent(uint(*cfg.IndentWidth))) //nolint:gosec // checked positive
	}
	if cfg.BinaryNextLine {
		opts = append(opts, syntax.BinaryNextLine(true))
	}
	if cfg.SpaceRedirects {
		opts = append(opts, syntax.SpaceRedirects(true))
	}
	if cfg.KeepPadding {
		opts = append(opts, syntax.KeepPadding(true)) //nolint:staticcheck // still honoured by the printer
	}
	if cfg.FunctionNextLine {
		opts = append(opts, syntax.FunctionNextLine(true))
	}
	if cfg.SwitchCaseIndent {
		opts = append(opts, syntax.SwitchCaseIndent(true))
	}
	return opts
}
