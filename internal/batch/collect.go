package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mridang/arkfmt/internal/filetype"
)

// ErrNoFiles is returned by Collect when nothing is left to format.
var ErrNoFiles = errors.New("No files matched the provided patterns (after excludes)") //nolint:staticcheck // user-facing message

// skipDirs are never descended into.
var skipDirs = map[string]bool{".git": true, "node_modules": true} //nolint:gochecknoglobals // static table

// Collect expands patterns into a sorted, de-duplicated list of files.
// A pattern is a file, a directory (walked recursively) or a doublestar
// glob. Files found by walking or globbing are kept only when supported
// reports true and they do not sit in a .git or node_modules directory
// below the pattern's base; explicitly named files are always kept.
// Matches of any exclude pattern and lock files are dropped.
func Collect(patterns, excludes []string, supported func(string) bool) ([]string, error) {
	for _, ex := range excludes {
		if !doublestar.ValidatePattern(filepath.ToSlash(ex)) {
			return nil, fmt.Errorf("invalid exclude pattern %q", ex)
		}
	}
	if supported == nil {
		supported = func(string) bool { return true }
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] || excluded(path, excludes) || filetype.IsIgnored(path) {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, pattern := range patterns {
		if isGlob(pattern) {
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}
			base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
			for _, m := range matches {
				if inSkippedDir(m, filepath.FromSlash(base)) {
					continue
				}
				if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() && supported(m) {
					add(m)
				}
			}
			continue
		}
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(pattern)
			continue
		}
		err = filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != pattern && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && supported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	slices.Sort(files)
	return files, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// excluded matches every exclude against the path and each of its
// trailing sub-paths. A plain name also excludes everything below a
// directory of that name.
func excluded(path string, excludes []string) bool {
	slash := filepath.ToSlash(path)
	for _, ex := range excludes {
		ex = strings.TrimSuffix(filepath.ToSlash(ex), "/")
		rest := slash
		for {
			if ok, _ := doublestar.Match(ex, rest); ok {
				return true
			}
			if !isGlob(ex) && strings.HasPrefix(rest, ex+"/") {
				return true
			}
			i := strings.IndexByte(rest, '/')
			if i < 0 {
				break
			}
			rest = rest[i+1:]
		}
	}
	return false
}

// inSkippedDir reports whether a directory between base and path is one
// of skipDirs.
func inSkippedDir(path, base string) bool {
	dir, err := filepath.Rel(base, filepath.Dir(path))
	if err != nil {
		dir = filepath.Dir(path)
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}
