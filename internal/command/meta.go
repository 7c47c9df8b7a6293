// Package command implements the arkfmt command line.
package command

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/cli"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/backend/builtin"
	extcmd "github.com/mridang/arkfmt/internal/backend/command"
	"github.com/mridang/arkfmt/internal/config"
	"github.com/mridang/arkfmt/internal/engine"
	"github.com/mridang/arkfmt/internal/wasmhost"
)

// Meta is the state shared by all commands.
type Meta struct {
	Ui cli.Ui
	// LogWriter receives diagnostics. Defaults to os.Stderr.
	LogWriter io.Writer
	// WorkingDir is where the configuration search starts. Defaults to ".".
	WorkingDir string

	configPath string
	plugins    stringList
	verbose    bool
}

// stringList is a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// flagSet returns a flag set with the flags every command understands.
func (m *Meta) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&m.configPath, "config", "", "configuration file")
	fs.Var(&m.plugins, "plugin", "dprint WASM plugin")
	fs.BoolVar(&m.verbose, "verbose", false, "debug logging")
	return fs
}

func (m *Meta) logger() *slog.Logger {
	w := m.LogWriter
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelWarn
	if m.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the -config file or the nearest .arkfmtrc file.
func (m *Meta) loadConfig() (*config.Config, error) {
	path := m.configPath
	if path == "" {
		dir := m.WorkingDir
		if dir == "" {
			dir = "."
		}
		found, err := config.Find(dir)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &engine.Error{Kind: engine.KindConfig, File: path, Err: err}
	}
	return cfg, nil
}

// router stacks the configured backends. Command lines win over plugins,
// plugins over the built-in formatters.
func (m *Meta) router(cfg *config.Config, logger *slog.Logger) (*backend.Router, *wasmhost.Host, error) {
	var named []backend.Named
	if len(cfg.Commands) > 0 {
		cmds, err := extcmd.New(cfg.Commands, logger)
		if err != nil {
			return nil, nil, &engine.Error{Kind: engine.KindConfig, File: cfg.Path, Err: err}
		}
		named = append(named, backend.Named{Name: "commands", Backend: cmds})
	}
	var host *wasmhost.Host
	if plugins := append(append([]string(nil), cfg.Plugins...), m.plugins...); len(plugins) > 0 {
		host = wasmhost.New(plugins, cfg.Options, logger)
		named = append(named, backend.Named{Name: "plugins", Backend: host})
	}
	named = append(named, backend.Named{Name: "builtin", Backend: builtin.New(logger)})
	return backend.NewRouter(named...), host, nil
}
