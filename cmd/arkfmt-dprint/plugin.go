package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/dprint"
	"github.com/mridang/arkfmt/internal/engine"
	"github.com/mridang/arkfmt/internal/native"
	"github.com/mridang/arkfmt/internal/tags"
)

const (
	pluginName = "dprint-plugin-arkfmt"
	pluginKey  = "arkfmt"
)

// pluginVersion is set at build time with -ldflags "-X".
var pluginVersion = "0.0.0" //nolint:gochecknoglobals // set by the linker

var pluginExtensions = []string{"ets", "ts", "tsx", "mts", "cts", "js", "jsx", "mjs", "cjs"} //nolint:gochecknoglobals // static table

// embeddedExtensions names the file extension dprint associates with an
// embedded parser.
var embeddedExtensions = map[string]string{ //nolint:gochecknoglobals // static table
	tags.ParserCSS:      "css",
	tags.ParserGraphQL:  "graphql",
	tags.ParserHTML:     "html",
	tags.ParserMarkdown: "md",
}

const licenseText = "arkfmt is distributed under the MIT License."

var errHostUnavailable = errors.New("the dprint host cannot format embedded code")

// hostFormat asks dprint to format code as the file at path. It reports
// whether the host changed the text. Replaced in TinyGo builds.
var hostFormat = func(_ string, _ []byte, _ string) (string, bool, error) { //nolint:gochecknoglobals // host binding
	return "", false, errHostUnavailable
}

// hostCancelled reports whether dprint cancelled the running format call.
var hostCancelled = func() bool { return false } //nolint:gochecknoglobals // host binding

// pluginConfig is a registered configuration.
type pluginConfig struct {
	Options     backend.Options
	Diagnostics []dprint.ConfigDiagnostic
}

// plugin holds the state behind the exported functions.
type plugin struct {
	engine   *engine.Engine
	configs  map[uint32]*pluginConfig
	filePath string
	override []byte
}

func newPlugin() *plugin {
	p := &plugin{configs: make(map[uint32]*pluginConfig)}
	p.engine = engine.New(engine.Config{
		Backend:     backend.Funcs{EmbeddedFunc: p.formatEmbedded},
		Concurrency: 1,
		Logger:      slog.New(slog.DiscardHandler),
	})
	return p
}

func (p *plugin) info() dprint.PluginInfo {
	return dprint.PluginInfo{
		Name:           pluginName,
		Version:        pluginVersion,
		ConfigKey:      pluginKey,
		FileExtensions: pluginExtensions,
		FileNames:      []string{},
	}
}

// register resolves the raw configuration sent by dprint. Global keys are
// overridden by plugin keys.
func (p *plugin) register(id uint32, data []byte) {
	cfg := &pluginConfig{Options: backend.Options{}}
	var raw dprint.RawConfig
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			cfg.Diagnostics = append(cfg.Diagnostics, dprint.ConfigDiagnostic{Message: err.Error()})
		}
	}
	if g := raw.Global; g.IndentWidth != nil {
		cfg.Options["indentWidth"] = *g.IndentWidth
	}
	if g := raw.Global; g.UseTabs != nil {
		cfg.Options["useTabs"] = *g.UseTabs
	}
	if g := raw.Global; g.LineWidth != nil {
		cfg.Options["lineWidth"] = *g.LineWidth
	}
	for k, v := range raw.Plugin {
		cfg.Options[k] = v
	}
	if _, err := native.OptionsFrom(cfg.Options); err != nil {
		name, _, _ := strings.Cut(err.Error(), ":")
		cfg.Diagnostics = append(cfg.Diagnostics, dprint.ConfigDiagnostic{PropertyName: name, Message: err.Error()})
	}
	p.configs[id] = cfg
}

func (p *plugin) config(id uint32) *pluginConfig {
	if cfg, ok := p.configs[id]; ok {
		return cfg
	}
	return &pluginConfig{Options: backend.Options{}}
}

// format formats the current file with configuration id and the current
// override configuration. changed is false when the text is already
// formatted.
func (p *plugin) format(id uint32, code string) (string, bool, error) {
	opts := p.config(id).Options.Clone()
	if len(p.override) > 0 {
		var override map[string]any
		if err := json.Unmarshal(p.override, &override); err != nil {
			return "", false, err
		}
		for k, v := range override {
			opts[k] = v
		}
	}
	res := p.engine.Format(context.Background(), engine.Request{FileName: p.filePath, Source: code, Options: opts})
	if len(res.Errors) > 0 {
		return "", false, errors.New(strings.Join(res.Errors, "\n"))
	}
	return res.Code, res.Changed, nil
}

// formatEmbedded hands embedded code back to dprint, which routes it to
// the plugin owning the matching extension.
func (p *plugin) formatEmbedded(ctx context.Context, opts backend.Options, _, code string) (string, error) {
	if hostCancelled() {
		return "", context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := embeddedExtensions[opts.Parser()]
	if !ok {
		ext = opts.Parser()
	}
	override, err := json.Marshal(dprint.GlobalFrom(opts))
	if err != nil {
		return "", err
	}
	path := filepath.Join(filepath.Dir(p.filePath), "embedded."+ext)
	out, changed, err := hostFormat(path, override, code)
	if err != nil {
		return "", err
	}
	if !changed {
		return code, nil
	}
	return out, nil
}
