package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mridang/arkfmt/internal/batch"
	"github.com/mridang/arkfmt/internal/engine"
)

// FormatCommand formats files in place, or reports what would change.
type FormatCommand struct {
	Meta
}

func (c *FormatCommand) Help() string {
	return strings.TrimSpace(`
Usage: arkfmt format [options] <pattern>...

  Formats ArkTS, TypeScript and JavaScript files, including CSS, GraphQL,
  HTML and Markdown embedded in tagged template literals. Other file types
  are handed to the built-in formatters, configured commands or dprint
  WASM plugins.

  A pattern is a file, a directory or a glob such as "src/**/*.ets".

Options:

  -thread, -t N      Number of files formatted concurrently. Defaults to 1.

  -exclude PATTERN   Skip files matching PATTERN. Repeatable.

  -check             Do not write; list files that are not formatted and
                     exit with status 1 if there are any.

  -diff              Do not write; print a unified diff for every file that
                     would change.

  -config PATH       Configuration file. Defaults to the nearest .arkfmtrc.json,
                     .arkfmtrc.yaml or .arkfmtrc.yml.

  -plugin PATH       dprint WASM plugin to load. Repeatable.

  -verbose           Log every pipeline step.
`)
}

func (c *FormatCommand) Synopsis() string {
	return "Formats source files"
}

func (c *FormatCommand) Run(args []string) int {
	var threads int
	var excludes stringList
	var check, diff bool
	fs := c.flagSet("format")
	fs.IntVar(&threads, "thread", 1, "concurrent files")
	fs.IntVar(&threads, "t", 1, "concurrent files")
	fs.Var(&excludes, "exclude", "exclude pattern")
	fs.BoolVar(&check, "check", false, "check only")
	fs.BoolVar(&diff, "diff", false, "print diffs")
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		c.Ui.Error(c.Help())
		return 1
	}
	if threads < 1 {
		c.Ui.Error(fmt.Sprintf("Invalid thread count %d", threads))
		return 1
	}
	patterns := fs.Args()
	if len(patterns) == 0 {
		c.Ui.Error("Missing file pattern")
		return 1
	}

	logger := c.logger()
	cfg, err := c.loadConfig()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	router, host, err := c.router(cfg, logger)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if host != nil {
		defer host.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(engine.Config{Backend: router, Concurrency: threads, Logger: logger})
	if err := eng.Init(ctx); err != nil {
		c.Ui.Warn(fmt.Sprintf("Failed to setup external formatter: %v", err))
	}

	files, err := batch.Collect(patterns, append(excludes, cfg.IgnorePatterns...), eng.Supports)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	runner := &batch.Runner{
		Engine:  eng,
		Workers: threads,
		Options: cfg.Options,
		Write:   !check && !diff,
		Logger:  logger,
	}
	results := runner.Run(ctx, files)

	var changed int
	for _, res := range results {
		if !res.Changed || len(res.Errors) > 0 {
			continue
		}
		changed++
		switch {
		case diff:
			c.Ui.Output(unifiedDiff(res))
		case check:
			c.Ui.Warn(res.Path)
		default:
			c.Ui.Output(res.Path)
		}
	}

	status := 0
	if err := batch.Err(results); err != nil {
		c.Ui.Error(err.Error())
		status = 1
	}
	switch {
	case check && changed > 0:
		c.Ui.Error(fmt.Sprintf("%d of %d files are not formatted", changed, len(files)))
		status = 1
	case check:
		c.Ui.Info(fmt.Sprintf("All %d files are formatted", len(files)))
	case !diff:
		c.Ui.Info(fmt.Sprintf("Formatted %d files, %d changed", len(files), changed))
	}
	return status
}

func unifiedDiff(res batch.FileResult) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(res.Original),
		B:        difflib.SplitLines(res.Code),
		FromFile: res.Path,
		ToFile:   res.Path + " (formatted)",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("%s: %v", res.Path, err)
	}
	return strings.TrimRight(text, "\n")
}
