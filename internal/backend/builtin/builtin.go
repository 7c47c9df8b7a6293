// Package builtin formats the foreign languages that have a mature Go
// formatter: Go, HCL/Terraform, shell, YAML, TOML and the JSON family.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mridang/arkfmt/internal/backend"
)

// Parser identifiers served by this backend.
const (
	ParserGo            = "go"
	ParserHCL           = "hcl"
	ParserJSON          = "json"
	ParserJSONStringify = "json-stringify"
	ParserJSONC         = "jsonc"
	ParserJSON5         = "json5"
	ParserTOML          = "toml"
	ParserShell         = "sh"
	ParserYAML          = "yaml"
)

type formatFunc func(src []byte, opts backend.Options) ([]byte, error)

// Backend runs the in-process formatters. It holds no per-call state and
// is safe for concurrent use.
type Backend struct {
	logger     *slog.Logger
	formatters map[string]formatFunc
}

var _ backend.Backend = (*Backend)(nil)

// New returns a Backend logging to logger, or to slog.Default when nil.
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		logger: logger,
		formatters: map[string]formatFunc{
			ParserGo:            formatGo,
			ParserHCL:           formatHCL,
			ParserJSON:          formatJSON,
			ParserJSONStringify: formatJSON,
			ParserJSONC:         formatJSONC,
			ParserJSON5:         formatJSONC,
			ParserTOML:          formatTOML,
			ParserShell:         formatShell,
			ParserYAML:          formatYAML,
		},
	}
}

// Parsers returns the served parser identifiers in sorted order.
func (b *Backend) Parsers() []string {
	out := make([]string, 0, len(b.formatters))
	for p := range b.formatters {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Init reports the served parsers; the formatters need no preparation.
func (b *Backend) Init(_ context.Context, _ int) ([]string, error) {
	return b.Parsers(), nil
}

func (b *Backend) FormatEmbedded(ctx context.Context, opts backend.Options, tag, code string) (string, error) {
	b.logger.DebugContext(ctx, "builtin embedded format", "tag", tag, "parser", opts.Parser())
	return b.format(opts.Parser(), opts, code)
}

func (b *Backend) FormatFile(ctx context.Context, opts backend.Options, parser, fileName, code string) (string, error) {
	b.logger.DebugContext(ctx, "builtin file format", "file", fileName, "parser", parser)
	return b.format(parser, opts, code)
}

func (b *Backend) format(parser string, opts backend.Options, code string) (string, error) {
	fn, ok := b.formatters[parser]
	if !ok {
		return "", fmt.Errorf("%w %q", backend.ErrNoFormatter, parser)
	}
	out, err := fn([]byte(code), opts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeConfig fills cfg from the option map, matching on JSON field
// names. Unknown keys are ignored.
func decodeConfig(opts backend.Options, cfg any) {
	if len(opts) == 0 {
		return
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, cfg) // tolerate unknown fields and mismatched types
}
