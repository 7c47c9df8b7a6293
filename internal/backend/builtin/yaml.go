package builtin

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mridang/arkfmt/internal/backend"
)

type yamlConfig struct {
	IndentWidth int `json:"indentWidth"`
}

func defaultYAMLConfig() yamlConfig {
	return yamlConfig{IndentWidth: 2}
}

// formatYAML round-trips every document of src through the node API, which
// keeps comments, key order and styles while normalizing indentation.
func formatYAML(src []byte, opts backend.Options) ([]byte, error) {
	cfg := defaultYAMLConfig()
	decodeConfig(opts, &cfg)
	if cfg.IndentWidth < 1 {
		cfg.IndentWidth = 2
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(cfg.IndentWidth)
	docs := 0
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(&doc); err != nil {
			return nil, err
		}
		docs++
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	if docs == 0 {
		return src, nil
	}
	return out.Bytes(), nil
}
