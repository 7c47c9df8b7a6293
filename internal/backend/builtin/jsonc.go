package builtin

import (
	"strings"

	"github.com/tailscale/hujson"

	"github.com/mridang/arkfmt/internal/backend"
)

// formatJSONC formats JSON with comments and trailing commas. Comments are
// kept; indentation follows indentWidth and useTabs. JSON5-only syntax
// such as unquoted keys is rejected by the parser.
func formatJSONC(src []byte, opts backend.Options) ([]byte, error) {
	cfg := defaultJSONConfig()
	decodeConfig(opts, &cfg)

	v, err := hujson.Parse(src)
	if err != nil {
		return nil, err
	}
	v.Format()
	out := string(v.Pack())

	if !cfg.UseTabs {
		unit := strings.Repeat(" ", max(cfg.IndentWidth, 0))
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			rest := strings.TrimLeft(line, "\t")
			lines[i] = strings.Repeat(unit, len(line)-len(rest)) + rest
		}
		out = strings.Join(lines, "\n")
	}
	return []byte(strings.TrimRight(out, " \t\n") + "\n"), nil
}
