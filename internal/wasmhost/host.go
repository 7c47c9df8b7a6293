// Package wasmhost runs dprint WASM formatter plugins (schema version 4)
// as a formatting backend.
package wasmhost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/dprint"
	"github.com/mridang/arkfmt/internal/wasm"
)

// Host loads plugins from files and serves the file extensions they claim
// as parser identifiers.
type Host struct {
	paths  []string
	base   backend.Options
	logger *slog.Logger

	mu      sync.RWMutex
	plugins []*plugin
	routes  map[string]*plugin
}

// plugin is one loaded plugin with a pool of instances.
type plugin struct {
	path string
	info dprint.PluginInfo
	pool chan *instance
}

var _ backend.Backend = (*Host)(nil)

// New returns a Host for the plugin files at paths. base supplies the
// global configuration (indentWidth, useTabs, lineWidth) registered with
// every plugin.
func New(paths []string, base backend.Options, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{paths: paths, base: base, logger: logger}
}

// Init loads every plugin with concurrency instances each. The returned
// parsers are the extensions the plugins match plus their config keys.
func (h *Host) Init(ctx context.Context, concurrency int) ([]string, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	engine := wasmer.NewEngine()
	routes := make(map[string]*plugin)
	var plugins []*plugin
	var parsers []string
	for _, path := range h.paths {
		p, claimed, err := h.load(ctx, engine, path, concurrency)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", path, err)
		}
		plugins = append(plugins, p)
		for _, c := range claimed {
			if _, taken := routes[c]; taken {
				continue
			}
			routes[c] = p
			parsers = append(parsers, c)
		}
	}
	h.mu.Lock()
	h.plugins, h.routes = plugins, routes
	h.mu.Unlock()
	return parsers, nil
}

func (h *Host) load(ctx context.Context, engine *wasmer.Engine, path string, n int) (*plugin, []string, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if err := wasm.RequireFunctions(code, dprint.RequiredExports...); err != nil {
		return nil, nil, err
	}
	code = wasm.StripStartSection(code)

	cfg := dprint.RawConfig{Plugin: map[string]any{}, Global: dprint.GlobalFrom(h.base)}
	p := &plugin{path: path, pool: make(chan *instance, n)}
	var matching dprint.FileMatchingInfo
	for i := range n {
		in, err := newInstance(engine, code)
		if err != nil {
			return nil, nil, err
		}
		diags, err := in.registerConfig(cfg)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			if p.info, err = in.pluginInfo(); err != nil {
				return nil, nil, err
			}
			if matching, err = in.fileMatching(); err != nil {
				return nil, nil, err
			}
			for _, d := range diags {
				h.logger.WarnContext(ctx, "plugin config diagnostic",
					"plugin", p.info.Name, "property", d.PropertyName, "message", d.Message)
			}
		}
		p.pool <- in
	}

	exts := matching.FileExtensions
	if len(exts) == 0 {
		exts = p.info.FileExtensions
	}
	claimed := make([]string, 0, len(exts)+1)
	for _, e := range exts {
		claimed = append(claimed, strings.TrimPrefix(e, "."))
	}
	if p.info.ConfigKey != "" {
		claimed = append(claimed, p.info.ConfigKey)
	}
	h.logger.DebugContext(ctx, "loaded plugin",
		"plugin", p.info.Name, "version", p.info.Version, "instances", n, "parsers", claimed)
	return p, claimed, nil
}

// Plugins returns the metadata of the loaded plugins.
func (h *Host) Plugins() []dprint.PluginInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]dprint.PluginInfo, len(h.plugins))
	for i, p := range h.plugins {
		out[i] = p.info
	}
	return out
}

// Close releases every plugin instance. Calls after Close fail with
// backend.ErrNoFormatter. Close must not run concurrently with a format
// call.
func (h *Host) Close() {
	h.mu.Lock()
	plugins := h.plugins
	h.plugins, h.routes = nil, nil
	h.mu.Unlock()
	for _, p := range plugins {
		for range cap(p.pool) {
			select {
			case in := <-p.pool:
				in.close()
			default:
			}
		}
	}
}

func (h *Host) FormatEmbedded(ctx context.Context, opts backend.Options, _, code string) (string, error) {
	parser := opts.Parser()
	path := opts.Filepath()
	if path == "" {
		path = "embedded." + parser
	}
	return h.format(ctx, opts, parser, path, code)
}

func (h *Host) FormatFile(ctx context.Context, opts backend.Options, parser, fileName, code string) (string, error) {
	return h.format(ctx, opts, parser, fileName, code)
}

func (h *Host) format(ctx context.Context, opts backend.Options, parser, path, code string) (string, error) {
	h.mu.RLock()
	p, ok := h.routes[parser]
	h.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w %q", backend.ErrNoFormatter, parser)
	}

	override := opts.Clone()
	delete(override, backend.KeyParser)
	delete(override, backend.KeyFilepath)
	data, err := json.Marshal(override)
	if err != nil {
		return "", fmt.Errorf("encode override config: %w", err)
	}

	var in *instance
	select {
	case in = <-p.pool:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { p.pool <- in }()

	in.cancelled.Store(false)
	stop := context.AfterFunc(ctx, func() { in.cancelled.Store(true) })
	defer stop()

	return in.format(path, data, code)
}
