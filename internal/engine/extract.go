package engine

import (
	"fmt"
	"strings"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/native"
)

// UnitKind tells who formats a Unit.
type UnitKind int

const (
	// UnitNative is host-language text printed by the native engine.
	UnitNative UnitKind = iota
	// UnitEmbedded is the content of a tagged template literal.
	UnitEmbedded
	// UnitWholeFile is a foreign file handed to the backend in one piece.
	UnitWholeFile
)

func (k UnitKind) String() string {
	switch k {
	case UnitNative:
		return "native"
	case UnitEmbedded:
		return "embedded"
	case UnitWholeFile:
		return "whole-file"
	default:
		return fmt.Sprintf("UnitKind(%d)", int(k))
	}
}

// Unit is one contiguous range of a source file and the formatter
// responsible for it. Start and End are byte offsets, End exclusive.
type Unit struct {
	Kind   UnitKind
	Start  int
	End    int
	Tag    string
	Parser string
	// Raw is the exact source text of the range.
	Raw string
	// Options is the private option set sent to the backend.
	Options backend.Options

	// token is the template literal's token index for embedded units.
	token int
}

// TagResolver maps a template tag to a parser.
type TagResolver interface {
	Resolve(tag string) (string, bool)
}

// Extract splits a parsed native file into units. Template literals whose
// tag resolves become embedded units unless embedded is false. Literals
// with substitutions or blank content stay native.
func Extract(file *native.File, resolve TagResolver, embedded bool) []Unit {
	src := file.Source
	var units []Unit
	pos := 0
	if embedded {
		for _, t := range file.Templates() {
			if t.Tag == "" || t.Substitutions {
				continue
			}
			parser, ok := resolve.Resolve(t.Tag)
			if !ok {
				continue
			}
			raw := t.Content(src)
			if strings.TrimSpace(raw) == "" {
				continue
			}
			start, end := t.Start+1, t.End-1
			if start > pos {
				units = append(units, Unit{Kind: UnitNative, Start: pos, End: start, Raw: src[pos:start]})
			}
			units = append(units, Unit{
				Kind:   UnitEmbedded,
				Start:  start,
				End:    end,
				Tag:    t.Tag,
				Parser: parser,
				Raw:    raw,
				token:  t.Index,
			})
			pos = end
		}
	}
	if pos < len(src) {
		units = append(units, Unit{Kind: UnitNative, Start: pos, End: len(src), Raw: src[pos:]})
	}
	return units
}

// wholeFile returns the single unit of a foreign file.
func wholeFile(src, parser string) []Unit {
	return []Unit{{Kind: UnitWholeFile, Start: 0, End: len(src), Parser: parser, Raw: src}}
}

// CheckCoverage verifies that units are non-empty, ascending, do not
// overlap and cover [0, size) without gaps.
func CheckCoverage(units []Unit, size int) error {
	pos := 0
	for i, u := range units {
		switch {
		case u.Start < pos:
			return fmt.Errorf("unit %d [%d,%d) overlaps offset %d", i, u.Start, u.End, pos)
		case u.Start > pos:
			return fmt.Errorf("gap [%d,%d) before unit %d", pos, u.Start, i)
		case u.End <= u.Start:
			return fmt.Errorf("unit %d [%d,%d) is empty", i, u.Start, u.End)
		}
		pos = u.End
	}
	if pos != size {
		return fmt.Errorf("units end at %d; source has %d bytes", pos, size)
	}
	return nil
}

// embeddedUnits returns the embedded units of units in order.
func embeddedUnits(units []Unit) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Kind == UnitEmbedded {
			out = append(out, u)
		}
	}
	return out
}
