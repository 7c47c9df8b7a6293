package wasmhost

import (
	"sync/atomic"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/mridang/arkfmt/internal/dprint"
)

// hostImports registers the functions a plugin imports from the host.
// Nested formatting is not offered: host_format always answers "no
// change". host_has_cancelled reflects the context of the running call.
func hostImports(store *wasmer.Store, cancelled *atomic.Bool) *wasmer.ImportObject {
	newFunc := func(params, results []wasmer.ValueKind, f func([]wasmer.Value) ([]wasmer.Value, error)) *wasmer.Function {
		return wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(
				wasmer.NewValueTypes(params...),
				wasmer.NewValueTypes(results...),
			),
			f,
		)
	}
	i32 := func(v int32) func([]wasmer.Value) ([]wasmer.Value, error) {
		return func([]wasmer.Value) ([]wasmer.Value, error) {
			return []wasmer.Value{wasmer.NewI32(v)}, nil
		}
	}
	eightI32 := []wasmer.ValueKind{
		wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32,
		wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32,
	}

	imports := wasmer.NewImportObject()
	imports.Register(
		dprint.HostModule,
		map[string]wasmer.IntoExtern{
			dprint.HostWriteBuffer: newFunc(
				[]wasmer.ValueKind{wasmer.I32}, nil,
				func([]wasmer.Value) ([]wasmer.Value, error) { return nil, nil },
			),
			dprint.HostFormat: newFunc(
				eightI32, []wasmer.ValueKind{wasmer.I32},
				i32(dprint.FormatResultNoChange),
			),
			dprint.HostGetFormattedText: newFunc(nil, []wasmer.ValueKind{wasmer.I32}, i32(0)),
			dprint.HostGetErrorText:     newFunc(nil, []wasmer.ValueKind{wasmer.I32}, i32(0)),
			dprint.HostHasCancelled: newFunc(
				nil, []wasmer.ValueKind{wasmer.I32},
				func([]wasmer.Value) ([]wasmer.Value, error) {
					if cancelled.Load() {
						return []wasmer.Value{wasmer.NewI32(1)}, nil
					}
					return []wasmer.Value{wasmer.NewI32(0)}, nil
				},
			),
		},
	)
	return imports
}
