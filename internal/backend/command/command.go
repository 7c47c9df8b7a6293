// Package command delegates formatting to external programs that read
// source on stdin and write the formatted result to stdout.
package command

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/mridang/arkfmt/internal/backend"
)

// FilepathPlaceholder in an argument is replaced with the file path of the
// call, or with a synthetic name for embedded code.
const FilepathPlaceholder = "{filepath}"

// Backend runs one configured command per parser.
type Backend struct {
	logger   *slog.Logger
	commands map[string][]string
	lookPath func(string) (string, error)
}

var _ backend.Backend = (*Backend)(nil)

// New parses the command lines with shell word splitting. Environment
// variables in a command line are expanded.
func New(lines map[string]string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	commands := make(map[string][]string, len(lines))
	for parser, line := range lines {
		argv, err := shell.Fields(line, os.Getenv)
		if err != nil {
			return nil, fmt.Errorf("command for parser %q: %w", parser, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("command for parser %q is empty", parser)
		}
		commands[parser] = argv
	}
	return &Backend{logger: logger, commands: commands, lookPath: exec.LookPath}, nil
}

// Init reports the parsers whose program can be found. Missing programs
// are logged and left out.
func (b *Backend) Init(ctx context.Context, _ int) ([]string, error) {
	var parsers []string
	for parser, argv := range b.commands {
		if _, err := b.lookPath(argv[0]); err != nil {
			b.logger.WarnContext(ctx, "formatter command not found", "parser", parser, "command", argv[0], "error", err)
			continue
		}
		parsers = append(parsers, parser)
	}
	slices.Sort(parsers)
	return parsers, nil
}

func (b *Backend) FormatEmbedded(ctx context.Context, opts backend.Options, tag, code string) (string, error) {
	name := opts.Filepath()
	if name == "" {
		name = "embedded." + opts.Parser()
	}
	return b.run(ctx, opts.Parser(), name, code)
}

func (b *Backend) FormatFile(ctx context.Context, _ backend.Options, parser, fileName, code string) (string, error) {
	return b.run(ctx, parser, fileName, code)
}

func (b *Backend) run(ctx context.Context, parser, fileName, code string) (string, error) {
	argv, ok := b.commands[parser]
	if !ok {
		return "", fmt.Errorf("%w %q", backend.ErrNoFormatter, parser)
	}
	args := make([]string, len(argv)-1)
	for i, a := range argv[1:] {
		args[i] = strings.ReplaceAll(a, FilepathPlaceholder, fileName)
	}

	cmd := exec.CommandContext(ctx, argv[0], args...) //nolint:gosec // commands come from the user's config
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.DebugContext(ctx, "running formatter command", "parser", parser, "file", fileName, "command", argv[0])
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", argv[0], err)
	}
	return stdout.String(), nil
}
