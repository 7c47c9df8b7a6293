// Package config loads the .arkfmtrc configuration file.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/mridang/arkfmt/internal/backend"
)

// Reserved keys. Every other key is a formatting option.
const (
	KeyPlugins        = "plugins"
	KeyCommands       = "commands"
	KeyIgnorePatterns = "ignorePatterns"
)

// FileNames are the configuration file names, in lookup order.
var FileNames = []string{".arkfmtrc.json", ".arkfmtrc.yaml", ".arkfmtrc.yml"} //nolint:gochecknoglobals // static table

//go:embed schema.json
var schemaJSON string

const schemaURL = "arkfmt://config.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Config is a loaded configuration.
type Config struct {
	// Path is the file the configuration came from, or empty.
	Path string
	// Plugins are WASM plugin paths, resolved against the file's directory.
	Plugins []string
	// Commands maps parser identifiers to external command lines.
	Commands map[string]string
	// IgnorePatterns are doublestar patterns excluded from collection.
	IgnorePatterns []string
	// Options is the base option mapping for every file.
	Options backend.Options
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Options: backend.Options{}}
}

// Find looks for a configuration file in dir and its parents. It returns
// an empty path when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes a JSON or YAML document. Relative plugin paths are
// resolved against dir.
func Parse(data []byte, dir string) (*Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	cfg := Default()
	for k, v := range raw {
		switch k {
		case KeyPlugins:
			for _, p := range v.([]any) {
				path := p.(string)
				if !filepath.IsAbs(path) {
					path = filepath.Join(dir, path)
				}
				cfg.Plugins = append(cfg.Plugins, path)
			}
		case KeyCommands:
			cfg.Commands = make(map[string]string)
			for parser, line := range v.(map[string]any) {
				cfg.Commands[parser] = line.(string)
			}
		case KeyIgnorePatterns:
			for _, p := range v.([]any) {
				cfg.IgnorePatterns = append(cfg.IgnorePatterns, p.(string))
			}
		default:
			cfg.Options[k] = v
		}
	}
	return cfg, nil
}

// validate checks raw against the embedded schema. The document goes
// through JSON first so that YAML scalars have JSON types.
func validate(raw map[string]any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
