package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/mridang/arkfmt/internal/backend"
)

// delegation is the outcome of one embedded unit. ok is false when the
// raw text must be kept.
type delegation struct {
	text string
	ok   bool
}

// dispatchEmbedded formats the embedded units of one file concurrently.
// Results are returned in the order of units. With a concurrency of one
// no goroutines are started.
func (e *Engine) dispatchEmbedded(ctx context.Context, file string, units []Unit) []delegation {
	if e.concurrency == 1 || len(units) < 2 {
		out := make([]delegation, len(units))
		for i := range units {
			out[i] = e.formatEmbedded(ctx, file, &units[i])
		}
		return out
	}
	mapper := iter.Mapper[Unit, delegation]{MaxGoroutines: e.concurrency}
	return mapper.Map(units, func(u *Unit) delegation {
		return e.formatEmbedded(ctx, file, u)
	})
}

// formatEmbedded never fails: any error or panic keeps the raw text.
func (e *Engine) formatEmbedded(ctx context.Context, file string, u *Unit) (d delegation) {
	logger := e.logger.With("file", file, "tag", u.Tag, "parser", u.Parser)
	defer func() {
		if r := recover(); r != nil {
			logger.DebugContext(ctx, "embedded formatter panicked, keeping original", "error", r)
			d = delegation{}
		}
	}()
	if e.backend == nil {
		return delegation{}
	}
	out, err := e.backend.FormatEmbedded(ctx, u.Options, u.Tag, u.Raw)
	if err != nil {
		err = &Error{Kind: KindEmbeddedDelegation, File: file, Err: err}
		logger.DebugContext(ctx, "keeping original embedded code", "error", err)
		return delegation{}
	}
	if !templateSafe(trimEmbedded(out)) {
		logger.DebugContext(ctx, "embedded output cannot live in a template literal, keeping original")
		return delegation{}
	}
	return delegation{text: out, ok: true}
}

// templateSafe reports whether s can be placed between backticks without
// ending the literal or opening a substitution. A trailing lone backslash
// would escape the closing backtick.
func templateSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return false
			}
			i++
		case '`':
			return false
		case '$':
			if strings.HasPrefix(s[i:], "${") {
				return false
			}
		}
	}
	return true
}

// formatWholeFile hands a foreign file to the backend. On failure the
// returned error is the single error of the file.
func (e *Engine) formatWholeFile(ctx context.Context, file string, u *Unit) (out string, err error) {
	if setupErr := e.registry.Err(); setupErr != nil {
		return "", &Error{Kind: KindSetup, File: file, Err: setupErr}
	}
	if e.backend == nil {
		return "", &Error{Kind: KindMissingCallback, File: file}
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = "", &Error{Kind: KindWholeFileDelegation, File: file, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = e.backend.FormatFile(ctx, u.Options, u.Parser, file, u.Raw)
	switch {
	case errors.Is(err, backend.ErrNotConfigured), errors.Is(err, backend.ErrNoFormatter):
		return "", &Error{Kind: KindMissingCallback, File: file, Err: err}
	case err != nil:
		return "", &Error{Kind: KindWholeFileDelegation, File: file, Err: err}
	}
	return out, nil
}
