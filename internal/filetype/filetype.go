// Package filetype decides which formatter owns a file, from its name alone.
package filetype

import (
	"path/filepath"
	"strings"
)

// Kind of a classified file.
type Kind int

const (
	// Unsupported files are neither native nor known to any parser.
	Unsupported Kind = iota
	// Native files are parsed and printed by the native engine.
	Native
	// Foreign files are handed whole to the external backend.
	Foreign
)

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Foreign:
		return "foreign"
	default:
		return "unsupported"
	}
}

// Class is the result of Classify.
type Class struct {
	Kind Kind
	// Parser is the backend parser identifier for Foreign files.
	Parser string
}

// Lookup reports whether a discovered parser claims the extension ext
// (without the leading dot).
type Lookup func(ext string) (parser string, ok bool)

var nativeExtensions = set( //nolint:gochecknoglobals // static table
	"ets", "ts", "tsx", "mts", "cts", "js", "jsx", "mjs", "cjs",
)

var lockFiles = set( //nolint:gochecknoglobals // static table
	// JSON, YAML lock files
	"package-lock.json", "pnpm-lock.yaml", "yarn.lock", "MODULE.bazel.lock",
	"bun.lock", "deno.lock", "composer.lock", "Package.resolved",
	"Pipfile.lock", "flake.lock", "mcmod.info",
	// TOML lock files
	"Cargo.lock", "Gopkg.lock", "pdm.lock", "poetry.lock", "uv.lock",
	// HCL lock files
	".terraform.lock.hcl",
)

// Classify returns how fileName must be formatted. Discovered parsers are
// consulted only after the native and built-in tables.
func Classify(fileName string, discovered Lookup) Class {
	base := filepath.Base(fileName)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return Class{}
	}
	ext := extension(base)
	if _, ok := nativeExtensions[ext]; ok {
		return Class{Kind: Native}
	}
	if IsIgnored(base) {
		return Class{}
	}
	if p, ok := builtinParser(base, ext); ok {
		return Class{Kind: Foreign, Parser: p}
	}
	if discovered != nil && ext != "" {
		if p, ok := discovered(ext); ok {
			return Class{Kind: Foreign, Parser: p}
		}
	}
	return Class{}
}

// IsIgnored reports whether the file is a lock file that is never
// formatted.
func IsIgnored(fileName string) bool {
	_, ok := lockFiles[filepath.Base(fileName)]
	return ok
}

func extension(base string) string {
	ext := filepath.Ext(base)
	return strings.TrimPrefix(ext, ".")
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
