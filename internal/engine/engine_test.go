package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mridang/arkfmt/internal/backend"
	"github.com/mridang/arkfmt/internal/backend/builtin"
	"github.com/mridang/arkfmt/internal/native"
	"github.com/mridang/arkfmt/internal/tags"
)

// nativeFormat is the reference output of the native printer alone.
func nativeFormat(t *testing.T, name, src string) string {
	t.Helper()
	f, err := native.Parse(name, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := native.Format(f, native.DefaultOptions())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return out
}

// embeddedCall records one FormatEmbedded invocation.
type embeddedCall struct {
	Tag    string
	Parser string
	Code   string
}

func recordingBackend(out string) (backend.Funcs, *[]embeddedCall) {
	var mu sync.Mutex
	calls := &[]embeddedCall{}
	return backend.Funcs{
		EmbeddedFunc: func(_ context.Context, opts backend.Options, tag, code string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			*calls = append(*calls, embeddedCall{Tag: tag, Parser: opts.Parser(), Code: code})
			return out, nil
		},
	}, calls
}

func TestFormat_Native(t *testing.T) {
	e := New(Config{})
	res := e.Format(context.Background(), Request{FileName: "a.ts", Source: "const x=1;const y=2;"})
	want := Result{Code: "const x = 1;\nconst y = 2;\n", Changed: true}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("Format mismatch (-want +got):\n%s", diff)
	}

	again := e.Format(context.Background(), Request{FileName: "a.ts", Source: res.Code})
	if again.Changed || again.Code != res.Code {
		t.Fatalf("second pass = %+v; want unchanged", again)
	}
}

func TestFormat_EmbeddedDelegated(t *testing.T) {
	b, calls := recordingBackend("FORMATTED")
	src := "const a = css`color:red`;\nconst b=1;"
	res := New(Config{Backend: b}).Format(context.Background(), Request{FileName: "a.ets", Source: src})
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	want := strings.Replace(nativeFormat(t, "a.ets", src), "color:red", "FORMATTED", 1)
	if res.Code != want {
		t.Fatalf("got %q; want %q", res.Code, want)
	}
	if diff := cmp.Diff([]embeddedCall{{Tag: "css", Parser: "css", Code: "color:red"}}, *calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_EmbeddedMultiline(t *testing.T) {
	b, _ := recordingBackend("a {\n  color: red;\n}\n\n")
	src := "if (x) {\n  y = css`a{color:red}`;\n}\n"
	e := New(Config{Backend: b})
	res := e.Format(context.Background(), Request{FileName: "a.ts", Source: src})
	want := "if (x) {\n  y = css`\n    a {\n      color: red;\n    }\n  `;\n}\n"
	if res.Code != want {
		t.Fatalf("got %q; want %q", res.Code, want)
	}

	again := e.Format(context.Background(), Request{FileName: "a.ts", Source: res.Code})
	if again.Code != want || again.Changed {
		t.Fatalf("second pass = %q (changed %v); want stable output", again.Code, again.Changed)
	}
}

func TestFormat_EmbeddedFallback(t *testing.T) {
	src := "const a = css`color:red`;\nconst q = gql`{ a }`;"
	want := nativeFormat(t, "a.ts", src)
	backends := map[string]backend.Backend{
		"error": backend.Funcs{EmbeddedFunc: func(context.Context, backend.Options, string, string) (string, error) {
			return "", errors.New("boom")
		}},
		"panic": backend.Funcs{EmbeddedFunc: func(context.Context, backend.Options, string, string) (string, error) {
			panic("boom")
		}},
		"backtick": backend.Funcs{EmbeddedFunc: func(context.Context, backend.Options, string, string) (string, error) {
			return "a`b", nil
		}},
		"trailing backslash": backend.Funcs{EmbeddedFunc: func(context.Context, backend.Options, string, string) (string, error) {
			return "a { content: \"\\\\\" }\\\n", nil
		}},
		"missing": backend.Funcs{},
		"nil":     nil,
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			res := New(Config{Backend: b}).Format(context.Background(), Request{FileName: "a.ts", Source: src})
			if len(res.Errors) != 0 {
				t.Fatalf("errors = %v; want none", res.Errors)
			}
			if res.Code != want {
				t.Fatalf("got %q; want %q", res.Code, want)
			}
		})
	}
}

func TestFormat_NotDelegated(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts backend.Options
	}{
		{"unknown tag", "const a = foo`x   y`;", nil},
		{"untagged", "const a = `x   y`;", nil},
		{"substitutions", "const a = css`color: ${c}`;", nil},
		{"blank", "const a = css`  `;", nil},
		{"disabled", "const a = css`x   y`;", backend.Options{"embeddedLanguageFormatting": "off"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, calls := recordingBackend("FORMATTED")
			res := New(Config{Backend: b}).Format(context.Background(), Request{FileName: "a.ts", Source: tc.src, Options: tc.opts})
			if len(*calls) != 0 {
				t.Fatalf("backend called: %+v", *calls)
			}
			if want := nativeFormat(t, "a.ts", tc.src); res.Code != want {
				t.Fatalf("got %q; want %q", res.Code, want)
			}
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name    string
		backend backend.Backend
		file    string
		src     string
		opts    backend.Options
		want    string
	}{
		{
			name: "unsupported",
			file: "a.xyz", src: "whatever",
			want: "Unsupported file type: a.xyz",
		},
		{
			name: "lock file",
			file: "package-lock.json", src: "{}",
			want: "Unsupported file type: package-lock.json",
		},
		{
			name: "nil backend",
			file: "a.json", src: "{}",
			want: "External formatter is required for file type: a.json",
		},
		{
			name:    "missing callback",
			backend: backend.Funcs{},
			file:    "a.json", src: "{}",
			want: "External formatter is required for file type: a.json",
		},
		{
			name:    "no formatter for parser",
			backend: backend.NewRouter(backend.Named{Name: "builtin", Backend: builtin.New(nil)}),
			file:    "a.css", src: "a{}",
			want: "External formatter is required for file type: a.css",
		},
		{
			name:    "no formatter for markdown",
			backend: backend.NewRouter(backend.Named{Name: "builtin", Backend: builtin.New(nil)}),
			file:    "README.md", src: "# x",
			want: "External formatter is required for file type: README.md",
		},
		{
			name: "whole file failure",
			backend: backend.Funcs{FileFunc: func(context.Context, backend.Options, string, string, string) (string, error) {
				return "", boom
			}},
			file: "a.json", src: "{}",
			want: "Failed to format file with external formatter: a.json\nboom",
		},
		{
			name: "whole file panic",
			backend: backend.Funcs{FileFunc: func(context.Context, backend.Options, string, string, string) (string, error) {
				panic("boom")
			}},
			file: "a.json", src: "{}",
			want: "Failed to format file with external formatter: a.json\npanic: boom",
		},
		{
			name: "setup failure",
			backend: backend.Funcs{InitFunc: func(context.Context, int) ([]string, error) {
				return nil, boom
			}},
			file: "a.json", src: "{}",
			want: "Failed to setup external formatter: boom",
		},
		{
			name: "config",
			file: "a.ts", src: "x",
			opts: backend.Options{"indentWidth": "wide"},
			want: "Failed to parse configuration: indentWidth: expected an integer between 0 and 24, got wide",
		},
		{
			name: "parse",
			file: "a.ts", src: "function f() {",
			want: `a.ts:1:14: unclosed "{"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := New(Config{Backend: tc.backend}).Format(context.Background(), Request{FileName: tc.file, Source: tc.src, Options: tc.opts})
			want := Result{Code: tc.src, Errors: []string{tc.want}}
			if diff := cmp.Diff(want, res); diff != "" {
				t.Fatalf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat_WholeFile(t *testing.T) {
	var got backend.Options
	b := backend.Funcs{FileFunc: func(_ context.Context, opts backend.Options, parser, fileName, code string) (string, error) {
		got = opts
		if parser != "yaml" || fileName != "conf/a.yml" {
			return "", fmt.Errorf("unexpected call %s %s", parser, fileName)
		}
		return strings.ToUpper(code), nil
	}}
	base := backend.Options{"indentWidth": 4}
	res := New(Config{Backend: b}).Format(context.Background(), Request{FileName: "conf/a.yml", Source: "a: b\n", Options: base})
	if diff := cmp.Diff(Result{Code: "A: B\n", Changed: true}, res); diff != "" {
		t.Fatalf("Format mismatch (-want +got):\n%s", diff)
	}
	wantOpts := backend.Options{"indentWidth": 4, "parser": "yaml", "filepath": "conf/a.yml"}
	if diff := cmp.Diff(wantOpts, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(backend.Options{"indentWidth": 4}, base); diff != "" {
		t.Fatalf("caller options modified (-want +got):\n%s", diff)
	}
}

func TestFormat_SetupFailureKeepsNativeWorking(t *testing.T) {
	var embedded atomic.Int32
	b := backend.Funcs{
		InitFunc: func(context.Context, int) ([]string, error) { return nil, errors.New("boom") },
		EmbeddedFunc: func(context.Context, backend.Options, string, string) (string, error) {
			embedded.Add(1)
			return "FORMATTED", nil
		},
	}
	e := New(Config{Backend: b})
	if err := e.Init(context.Background()); err == nil {
		t.Fatalf("Init succeeded; want the backend error")
	}
	src := "const a = css`color:red`;"
	res := e.Format(context.Background(), Request{FileName: "a.ts", Source: src})
	if len(res.Errors) != 0 || res.Code != nativeFormat(t, "a.ts", src) {
		t.Fatalf("Format = %+v; want native output", res)
	}
	if embedded.Load() != 0 {
		t.Fatalf("embedded formatter called after setup failure")
	}
}

func TestFormat_DiscoveredParsers(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	b := backend.Funcs{
		InitFunc: func(context.Context, int) ([]string, error) { return []string{"sql", "css"}, nil },
		EmbeddedFunc: func(_ context.Context, opts backend.Options, tag, code string) (string, error) {
			mu.Lock()
			seen = append(seen, tag+"->"+opts.Parser())
			mu.Unlock()
			return code, nil
		},
		FileFunc: func(_ context.Context, _ backend.Options, parser, _, code string) (string, error) {
			return parser + ":" + code, nil
		},
	}
	e := New(Config{Backend: b})
	res := e.Format(context.Background(), Request{FileName: "a.ts", Source: "q = sql`select 1`;\nr = styled.div`a: b`;"})
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if diff := cmp.Diff([]string{"sql->sql", "styled.div->css"}, seen, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("embedded calls mismatch (-want +got):\n%s", diff)
	}

	res = e.Format(context.Background(), Request{FileName: "q.sql", Source: "select 1"})
	if res.Code != "sql:select 1" {
		t.Fatalf("whole file = %+v; want the discovered parser", res)
	}
	if diff := cmp.Diff([]string{"sql", "css"}, e.Parsers()); diff != "" {
		t.Fatalf("Parsers mismatch (-want +got):\n%s", diff)
	}
}

func TestInit_RunsOnce(t *testing.T) {
	var inits atomic.Int32
	var hint atomic.Int32
	b := backend.Funcs{InitFunc: func(_ context.Context, n int) ([]string, error) {
		inits.Add(1)
		hint.Store(int32(n)) //nolint:gosec // small test value
		return nil, nil
	}}
	e := New(Config{Backend: b, Concurrency: 4})
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Format(context.Background(), Request{FileName: "a.ts", Source: "x"})
		}()
	}
	wg.Wait()
	if inits.Load() != 1 {
		t.Fatalf("Init called %d times; want 1", inits.Load())
	}
	if hint.Load() != 4 {
		t.Fatalf("concurrency hint = %d; want 4", hint.Load())
	}
}

func TestFormat_OptionIsolation(t *testing.T) {
	b := backend.Funcs{EmbeddedFunc: func(_ context.Context, opts backend.Options, tag, code string) (string, error) {
		want := map[string]string{"css": "css", "gql": "graphql", "md": "markdown"}[tag]
		if opts.Parser() != want {
			return "", fmt.Errorf("tag %s got parser %s", tag, opts.Parser())
		}
		opts["parser"] = "clobbered"
		opts["nested"].(map[string]any)["k"] = "clobbered"
		return strings.ToUpper(code), nil
	}}
	base := backend.Options{"nested": map[string]any{"k": "v"}}
	e := New(Config{Backend: b, Concurrency: 3})
	src := "a = css`x`;\nb = gql`y`;\nc = md`z`;\nd = css`w`;"
	want := "a = css`X`;\nb = gql`Y`;\nc = md`Z`;\nd = css`W`;\n"

	var wg sync.WaitGroup
	errs := make(chan string, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := e.Format(context.Background(), Request{FileName: "a.ts", Source: src, Options: base}); res.Code != want {
				errs <- res.Code
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("got %q; want %q", got, want)
	}
	if diff := cmp.Diff(backend.Options{"nested": map[string]any{"k": "v"}}, base); diff != "" {
		t.Fatalf("caller options modified (-want +got):\n%s", diff)
	}
}

func TestExtract(t *testing.T) {
	src := "let a = css`x: y`;\nlet b = foo`z`;\nlet c = md`# t`"
	f, err := native.Parse("a.ts", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	units := Extract(f, tags.Default(), true)
	if err := CheckCoverage(units, len(src)); err != nil {
		t.Fatalf("CheckCoverage: %v", err)
	}
	var got []string
	for _, u := range units {
		if src[u.Start:u.End] != u.Raw {
			t.Fatalf("unit %+v: Raw does not match its range", u)
		}
		got = append(got, u.Kind.String()+":"+u.Parser+":"+u.Raw)
	}
	want := []string{
		"native::let a = css`",
		"embedded:css:x: y",
		"native::`;\nlet b = foo`z`;\nlet c = md`",
		"embedded:markdown:# t",
		"native::`",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}

	off := Extract(f, tags.Default(), false)
	if len(off) != 1 || off[0].Kind != UnitNative || off[0].Raw != src {
		t.Fatalf("disabled extraction = %+v; want one native unit", off)
	}
	if units := Extract(&native.File{}, tags.Default(), true); len(units) != 0 {
		t.Fatalf("empty source gave units %+v", units)
	}
}

func TestCheckCoverage(t *testing.T) {
	cases := []struct {
		name  string
		units []Unit
		size  int
		ok    bool
	}{
		{"empty source", nil, 0, true},
		{"whole", wholeFile("abc", "json"), 3, true},
		{"contiguous", []Unit{{Start: 0, End: 2}, {Start: 2, End: 5}}, 5, true},
		{"gap", []Unit{{Start: 0, End: 2}, {Start: 3, End: 5}}, 5, false},
		{"overlap", []Unit{{Start: 0, End: 3}, {Start: 2, End: 5}}, 5, false},
		{"empty unit", []Unit{{Start: 0, End: 0}, {Start: 0, End: 5}}, 5, false},
		{"short", []Unit{{Start: 0, End: 4}}, 5, false},
	}
	for _, tc := range cases {
		if err := CheckCoverage(tc.units, tc.size); (err == nil) != tc.ok {
			t.Errorf("%s: CheckCoverage = %v; want ok=%v", tc.name, err, tc.ok)
		}
	}
}

func TestReindent(t *testing.T) {
	cases := []struct {
		code, indent, unit, want string
	}{
		{"a: b;\n", "", "  ", "a: b;"},
		{"\n\na {\n  b: c;\n}\n", "", "  ", "\n  a {\n    b: c;\n  }\n"},
		{"a\n\nb", "\t", "\t", "\n\t\ta\n\n\t\tb\n\t"},
	}
	for _, tc := range cases {
		if got := reindent(tc.code, tc.indent, tc.unit); got != tc.want {
			t.Errorf("reindent(%q, %q) = %q; want %q", tc.code, tc.indent, got, tc.want)
		}
	}
}

func TestTemplateSafe(t *testing.T) {
	cases := map[string]bool{
		"color: red;": true,
		"a\\`b":       true,
		"cost: $5":    true,
		"a`b":         false,
		"${x}":        false,
		"\\${x}":      true,
		"a\\":         false,
		"a\\\\":       true,
	}
	for in, want := range cases {
		if got := templateSafe(in); got != want {
			t.Errorf("templateSafe(%q) = %v; want %v", in, got, want)
		}
	}
}
