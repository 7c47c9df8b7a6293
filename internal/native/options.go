package native

import (
	"fmt"
	"math"
)

// Values of the embeddedLanguageFormatting option.
const (
	EmbeddedAuto = "auto"
	EmbeddedOff  = "off"
)

// Options control the native printer.
type Options struct {
	IndentWidth                int
	UseTabs                    bool
	InsertFinalNewline         bool
	EmbeddedLanguageFormatting string
}

// DefaultOptions returns the options used when a key is absent.
func DefaultOptions() Options {
	return Options{
		IndentWidth:                2,
		UseTabs:                    false,
		InsertFinalNewline:         true,
		EmbeddedLanguageFormatting: EmbeddedAuto,
	}
}

// OptionsFrom reads the native keys out of a free-form option map. Keys the
// native printer does not know are left for the external backend.
func OptionsFrom(m map[string]any) (Options, error) {
	o := DefaultOptions()
	if v, ok := m["indentWidth"]; ok {
		n, err := toInt(v)
		if err != nil || n < 0 || n > 24 {
			return o, fmt.Errorf("indentWidth: expected an integer between 0 and 24, got %v", v)
		}
		o.IndentWidth = n
	}
	if v, ok := m["useTabs"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return o, fmt.Errorf("useTabs: expected a boolean, got %v", v)
		}
		o.UseTabs = b
	}
	if v, ok := m["insertFinalNewline"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return o, fmt.Errorf("insertFinalNewline: expected a boolean, got %v", v)
		}
		o.InsertFinalNewline = b
	}
	if v, ok := m["embeddedLanguageFormatting"]; ok {
		s, _ := v.(string)
		if s != EmbeddedAuto && s != EmbeddedOff {
			return o, fmt.Errorf("embeddedLanguageFormatting: expected %q or %q, got %v", EmbeddedAuto, EmbeddedOff, v)
		}
		o.EmbeddedLanguageFormatting = s
	}
	return o, nil
}

// IndentUnit is one level of indentation.
func (o Options) IndentUnit() string {
	if o.UseTabs {
		return "\t"
	}
	return spaces(o.IndentWidth)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil //nolint:gosec // bounded by the caller
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
