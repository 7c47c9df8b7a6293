package builtin

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mridang/arkfmt/internal/backend"
)

type jsonConfig struct {
	IndentWidth int  `json:"indentWidth"`
	UseTabs     bool `json:"useTabs"`
}

func defaultJSONConfig() jsonConfig {
	return jsonConfig{IndentWidth: 2}
}

// formatJSON re-indents a JSON document, keeping key order and number
// spelling, and ends it with a newline.
func formatJSON(src []byte, opts backend.Options) ([]byte, error) {
	cfg := defaultJSONConfig()
	decodeConfig(opts, &cfg)

	indent := strings.Repeat(" ", max(cfg.IndentWidth, 0))
	if cfg.UseTabs {
		indent = "\t"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(src), "", indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
