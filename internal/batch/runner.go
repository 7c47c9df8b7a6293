// Package batch formats many files with a bounded number of concurrent
// pipelines.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/engine"
)

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	Original string
	Code     string
	Changed  bool
	// Skipped is set for empty files.
	Skipped bool
	Errors  []string
}

// Runner formats files with an Engine.
type Runner struct {
	Engine *engine.Engine
	// Workers bounds concurrent pipelines. Values below 1 mean 1.
	Workers int
	// Options is the base option mapping for every file.
	Options backend.Options
	// Write stores changed files back to disk.
	Write  bool
	Logger *slog.Logger
}

// Run formats files and returns one result per file in input order.
// Backend initialization happens once before the first pipeline starts.
// Files not started when ctx is cancelled report the context error.
func (r *Runner) Run(ctx context.Context, files []string) []FileResult {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := max(r.Workers, 1)
	if err := r.Engine.Init(ctx); err != nil {
		logger.WarnContext(ctx, "continuing without external formatter", "error", err)
	}

	results := make([]FileResult, len(files))
	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			results[i] = FileResult{Path: path, Errors: []string{err.Error()}}
			continue
		}
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Errors: []string{err.Error()}}
				return
			}
			results[i] = r.formatFile(ctx, logger, path)
		})
	}
	p.Wait()
	return results
}

func (r *Runner) formatFile(ctx context.Context, logger *slog.Logger, path string) (res FileResult) {
	res.Path = path
	defer func() {
		if v := recover(); v != nil {
			logger.ErrorContext(ctx, "pipeline panicked", "file", path, "error", v)
			res.Code, res.Changed = res.Original, false
			res.Errors = []string{fmt.Sprintf("internal error: %v", v)}
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.Original = string(data)
	if len(data) == 0 {
		res.Skipped = true
		res.Code = res.Original
		return res
	}

	out := r.Engine.Format(ctx, engine.Request{FileName: path, Source: res.Original, Options: r.Options})
	res.Code, res.Changed, res.Errors = out.Code, out.Changed, out.Errors
	if !r.Write || !res.Changed || len(res.Errors) > 0 {
		return res
	}
	if err := writeFile(path, res.Code); err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	logger.DebugContext(ctx, "wrote formatted file", "file", path)
	return res
}

// writeFile replaces the content of path and keeps its permissions.
func writeFile(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), info.Mode().Perm())
}

// Err combines the errors of all results, or returns nil.
func Err(results []FileResult) error {
	var merr *multierror.Error
	for _, res := range results {
		for _, msg := range res.Errors {
			merr = multierror.Append(merr, fmt.Errorf("%s: %s", res.Path, msg))
		}
	}
	return merr.ErrorOrNil()
}
