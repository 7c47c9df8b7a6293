package backend

// Option keys set by the engine on every delegated call.
const (
	KeyParser   = "parser"
	KeyFilepath = "filepath"
)

// Options is the free-form option map handed to a backend. Each delegated
// call receives its own deep copy.
type Options map[string]any

// Clone returns a deep copy of o. Nested maps and slices are copied so that
// a backend mutating its options cannot affect another call.
func (o Options) Clone() Options {
	out := make(Options, len(o)+2)
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

// WithParser returns a copy of o with the parser key set.
func (o Options) WithParser(parser string) Options {
	out := o.Clone()
	out[KeyParser] = parser
	return out
}

// WithFilepath returns a copy of o with the filepath key set.
func (o Options) WithFilepath(path string) Options {
	out := o.Clone()
	out[KeyFilepath] = path
	return out
}

// Parser returns the parser key, or empty.
func (o Options) Parser() string {
	s, _ := o[KeyParser].(string)
	return s
}

// Filepath returns the filepath key, or empty.
func (o Options) Filepath() string {
	s, _ := o[KeyFilepath].(string)
	return s
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Options:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
