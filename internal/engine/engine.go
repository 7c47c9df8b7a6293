// Package engine formats one file at a time: it classifies the file, lets
// the native printer handle the host language and hands embedded or
// foreign code to a backend.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/filetype"
	"github.com/mridang/arkfmt/internal/native"
	"github.com/mridang/arkfmt/internal/tags"
)

// State is a step of the per-file pipeline, reported in debug logs.
type State string

const (
	StateReceived        State = "received"
	StateClassified      State = "classified"
	StateUnsupportedType State = "unsupported-type"
	StateExtracting      State = "extracting"
	StateDispatching     State = "dispatching"
	StateAssembling      State = "assembling"
	StateDone            State = "done"
)

// Request is one file to format.
type Request struct {
	FileName string
	Source   string
	// Options is the caller's option mapping. It is never modified.
	Options backend.Options
}

// Result is the outcome of Format. On any error Code is the original
// source.
type Result struct {
	Code    string
	Errors  []string
	Changed bool
}

// Config configures an Engine.
type Config struct {
	// Backend formats embedded and foreign code. Nil disables delegation.
	Backend backend.Backend
	// Tags resolves template tags. Defaults to tags.Default().
	Tags *tags.Resolver
	// Concurrency is the hint passed to Backend.Init and the bound on
	// concurrent embedded calls per file.
	Concurrency int
	Logger      *slog.Logger
}

// Engine is safe for concurrent use.
type Engine struct {
	backend     backend.Backend
	baseTags    *tags.Resolver
	concurrency int
	logger      *slog.Logger

	registry Registry
	ready    sync.Once
	tags     *tags.Resolver
}

// New returns an Engine. The backend is initialized on first use.
func New(cfg Config) *Engine {
	e := &Engine{
		backend:     cfg.Backend,
		baseTags:    cfg.Tags,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
	if e.baseTags == nil {
		e.baseTags = tags.Default()
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Init resolves the backend's parsers. It runs once; Format calls it
// implicitly. The returned error is the backend's Init failure.
func (e *Engine) Init(ctx context.Context) error {
	e.ready.Do(func() {
		if err := e.registry.Resolve(ctx, e.backend, e.concurrency); err != nil {
			e.logger.WarnContext(ctx, "external formatter setup failed", "error", err)
		}
		e.tags = e.baseTags.Extend(e.registry.Parsers())
	})
	return e.registry.Err()
}

// Parsers returns the parsers discovered from the backend.
func (e *Engine) Parsers() []string { return e.registry.Parsers() }

// Supports reports whether fileName has a formatter, native or delegated.
func (e *Engine) Supports(fileName string) bool {
	return filetype.Classify(fileName, e.registry.lookup).Kind != filetype.Unsupported
}

// Format formats one file. It never panics; failures are reported in
// Result.Errors.
func (e *Engine) Format(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "formatter panicked", "file", req.FileName, "error", r)
			res = failed(req.Source, fmt.Errorf("internal error: %v", r))
		}
	}()
	_ = e.Init(ctx)

	e.stage(ctx, req.FileName, StateReceived)
	class := filetype.Classify(req.FileName, e.registry.lookup)
	e.stage(ctx, req.FileName, StateClassified, "kind", class.Kind.String(), "parser", class.Parser)

	switch class.Kind {
	case filetype.Native:
		return e.formatNative(ctx, req)
	case filetype.Foreign:
		return e.formatForeign(ctx, req, class.Parser)
	default:
		e.stage(ctx, req.FileName, StateUnsupportedType)
		return failed(req.Source, &Error{Kind: KindUnsupportedFileType, File: req.FileName})
	}
}

func (e *Engine) formatForeign(ctx context.Context, req Request, parser string) Result {
	e.stage(ctx, req.FileName, StateExtracting)
	units := wholeFile(req.Source, parser)
	units[0].Options = req.Options.WithParser(parser).WithFilepath(req.FileName)

	e.stage(ctx, req.FileName, StateDispatching, "units", len(units))
	out, err := e.formatWholeFile(ctx, req.FileName, &units[0])
	if err != nil {
		return failed(req.Source, err)
	}
	e.stage(ctx, req.FileName, StateDone)
	return Result{Code: out, Changed: out != req.Source}
}

func (e *Engine) formatNative(ctx context.Context, req Request) Result {
	opts, err := native.OptionsFrom(req.Options)
	if err != nil {
		return failed(req.Source, &Error{Kind: KindConfig, File: req.FileName, Err: err})
	}
	file, err := native.Parse(req.FileName, req.Source)
	if err != nil {
		return failed(req.Source, &Error{Kind: KindParse, File: req.FileName, Err: err})
	}

	e.stage(ctx, req.FileName, StateExtracting)
	delegate := opts.EmbeddedLanguageFormatting != native.EmbeddedOff && e.registry.Err() == nil
	units := Extract(file, e.tags, delegate)
	if err := CheckCoverage(units, len(req.Source)); err != nil {
		return failed(req.Source, fmt.Errorf("internal error: %w", err))
	}
	embedded := embeddedUnits(units)
	cuts := make([]int, len(embedded))
	for k := range embedded {
		embedded[k].Options = req.Options.WithParser(embedded[k].Parser)
		cuts[k] = embedded[k].token
	}

	e.stage(ctx, req.FileName, StateDispatching, "units", len(units), "embedded", len(embedded))
	results := e.dispatchEmbedded(ctx, req.FileName, embedded)

	e.stage(ctx, req.FileName, StateAssembling)
	skel, err := native.Print(file, opts, cuts)
	if err != nil {
		return failed(req.Source, fmt.Errorf("internal error: %w", err))
	}
	code := native.Finish(assemble(skel, embedded, results, opts.IndentUnit()), opts)

	e.stage(ctx, req.FileName, StateDone)
	return Result{Code: code, Changed: code != req.Source}
}

func (e *Engine) stage(ctx context.Context, file string, s State, args ...any) {
	e.logger.DebugContext(ctx, "pipeline", append([]any{"file", file, "state", string(s)}, args...)...)
}

func failed(src string, err error) Result {
	return Result{Code: src, Errors: []string{err.Error()}}
}
