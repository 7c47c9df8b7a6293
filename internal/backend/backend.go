// Package backend defines the contract between the formatting engine and
// the formatters that handle languages it does not parse itself.
package backend

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by a Funcs backend whose callback for the
	// requested operation was never supplied.
	ErrNotConfigured = errors.New("callback not configured")
	// ErrNoFormatter is returned when no backend claims a parser.
	ErrNoFormatter = errors.New("no formatter for parser")
)

// Backend formats code in languages the native engine does not own.
//
// Implementations must be safe for concurrent use once Init has returned.
type Backend interface {
	// Init prepares the backend for up to concurrency simultaneous calls and
	// returns the parser identifiers it can serve. The engine calls it once.
	Init(ctx context.Context, concurrency int) ([]string, error)
	// FormatEmbedded formats the content of a tagged template literal.
	// opts carries the parser to use.
	FormatEmbedded(ctx context.Context, opts Options, tag, code string) (string, error)
	// FormatFile formats a whole file with the given parser.
	FormatFile(ctx context.Context, opts Options, parser, fileName, code string) (string, error)
}

// Funcs adapts plain functions to Backend. A nil field makes the matching
// operation fail with ErrNotConfigured; a nil InitFunc reports no parsers.
type Funcs struct {
	InitFunc     func(ctx context.Context, concurrency int) ([]string, error)
	EmbeddedFunc func(ctx context.Context, opts Options, tag, code string) (string, error)
	FileFunc     func(ctx context.Context, opts Options, parser, fileName, code string) (string, error)
}

var _ Backend = Funcs{}

func (f Funcs) Init(ctx context.Context, concurrency int) ([]string, error) {
	if f.InitFunc == nil {
		return nil, nil
	}
	return f.InitFunc(ctx, concurrency)
}

func (f Funcs) FormatEmbedded(ctx context.Context, opts Options, tag, code string) (string, error) {
	if f.EmbeddedFunc == nil {
		return "", ErrNotConfigured
	}
	return f.EmbeddedFunc(ctx, opts, tag, code)
}

func (f Funcs) FormatFile(ctx context.Context, opts Options, parser, fileName, code string) (string, error) {
	if f.FileFunc == nil {
		return "", ErrNotConfigured
	}
	return f.FileFunc(ctx, opts, parser, fileName, code)
}
