package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Named pairs a backend with a name used in errors and logs.
type Named struct {
	Name    string
	Backend Backend
}

// Router presents several backends as one. Each parser is served by the
// first backend, in registration order, that reports it from Init.
type Router struct {
	backends []Named

	mu     sync.RWMutex
	routes map[string]int
}

var _ Backend = (*Router)(nil)

// NewRouter returns a Router over the given backends.
func NewRouter(backends ...Named) *Router {
	return &Router{backends: backends}
}

// Init initializes every backend and returns the union of their parsers.
// Failures are collected; any failure is reported to the caller.
func (r *Router) Init(ctx context.Context, concurrency int) ([]string, error) {
	routes := make(map[string]int)
	var parsers []string
	var result *multierror.Error
	for i, b := range r.backends {
		list, err := b.Backend.Init(ctx, concurrency)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", b.Name, err))
			continue
		}
		for _, p := range list {
			if _, taken := routes[p]; taken {
				continue
			}
			routes[p] = i
			parsers = append(parsers, p)
		}
	}
	r.mu.Lock()
	r.routes = routes
	r.mu.Unlock()
	return parsers, result.ErrorOrNil()
}

// Owner returns the name of the backend serving parser.
func (r *Router) Owner(parser string) (string, bool) {
	b, ok := r.route(parser)
	if !ok {
		return "", false
	}
	return b.Name, true
}

func (r *Router) FormatEmbedded(ctx context.Context, opts Options, tag, code string) (string, error) {
	b, ok := r.route(opts.Parser())
	if !ok {
		return "", fmt.Errorf("%w %q", ErrNoFormatter, opts.Parser())
	}
	return b.Backend.FormatEmbedded(ctx, opts, tag, code)
}

func (r *Router) FormatFile(ctx context.Context, opts Options, parser, fileName, code string) (string, error) {
	b, ok := r.route(parser)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrNoFormatter, parser)
	}
	return b.Backend.FormatFile(ctx, opts, parser, fileName, code)
}

func (r *Router) route(parser string) (Named, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.routes[parser]
	if !ok {
		return Named{}, false
	}
	return r.backends[i], true
}
