package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mridang/arkfmt/internal/backend"
)

// Registry holds the parser identifiers the backend reported from Init.
// Resolution happens at most once; afterwards the registry is read-only.
type Registry struct {
	once    sync.Once
	parsers map[string]struct{}
	list    []string
	err     error
}

// Resolve initializes b with the concurrency hint the first time it is
// called. Later calls return the recorded outcome. A nil backend resolves
// to an empty registry.
func (r *Registry) Resolve(ctx context.Context, b backend.Backend, concurrency int) error {
	r.once.Do(func() {
		r.parsers = make(map[string]struct{})
		if b == nil {
			return
		}
		list, err := initBackend(ctx, b, concurrency)
		if err != nil {
			r.err = err
			return
		}
		for _, p := range list {
			if _, dup := r.parsers[p]; dup {
				continue
			}
			r.parsers[p] = struct{}{}
			r.list = append(r.list, p)
		}
	})
	return r.err
}

func initBackend(ctx context.Context, b backend.Backend, concurrency int) (list []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			list, err = nil, fmt.Errorf("panic during init: %v", r)
		}
	}()
	return b.Init(ctx, concurrency)
}

// Err returns the initialization failure, if any.
func (r *Registry) Err() error { return r.err }

// Has reports whether parser was discovered.
func (r *Registry) Has(parser string) bool {
	_, ok := r.parsers[parser]
	return ok
}

// Parsers returns the discovered parsers in the order the backend
// reported them.
func (r *Registry) Parsers() []string { return slices.Clone(r.list) }

// lookup adapts the registry to file classification: a discovered parser
// claims the file extension of the same name.
func (r *Registry) lookup(ext string) (string, bool) {
	if r.Has(ext) {
		return ext, true
	}
	return "", false
}
