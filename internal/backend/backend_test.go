package backend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionsClone_Deep(t *testing.T) {
	orig := Options{
		"printWidth": 80,
		"nested":     map[string]any{"a": []any{1, 2}},
		"list":       []string{"x"},
	}
	c := orig.WithParser("css")
	c["printWidth"] = 120
	c["nested"].(map[string]any)["a"].([]any)[0] = 99
	c["list"].([]string)[0] = "y"

	if _, ok := orig[KeyParser]; ok {
		t.Fatalf("WithParser mutated the original")
	}
	want := Options{
		"printWidth": 80,
		"nested":     map[string]any{"a": []any{1, 2}},
		"list":       []string{"x"},
	}
	if diff := cmp.Diff(want, orig); diff != "" {
		t.Fatalf("original changed (-want +got):\n%s", diff)
	}
	if c.Parser() != "css" {
		t.Fatalf("Parser() = %q; want css", c.Parser())
	}
	if got := orig.WithFilepath("a/b.json").Filepath(); got != "a/b.json" {
		t.Fatalf("Filepath() = %q; want a/b.json", got)
	}
}

func TestFuncs_NilCallbacks(t *testing.T) {
	var f Funcs
	ctx := context.Background()
	parsers, err := f.Init(ctx, 4)
	if err != nil || len(parsers) != 0 {
		t.Fatalf("Init = %v, %v; want empty, nil", parsers, err)
	}
	if _, err := f.FormatEmbedded(ctx, nil, "css", "a{}"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("FormatEmbedded err = %v; want ErrNotConfigured", err)
	}
	if _, err := f.FormatFile(ctx, nil, "json", "a.json", "{}"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("FormatFile err = %v; want ErrNotConfigured", err)
	}
}

func fixed(parsers []string, out string) Funcs {
	return Funcs{
		InitFunc: func(context.Context, int) ([]string, error) { return parsers, nil },
		EmbeddedFunc: func(_ context.Context, opts Options, _, _ string) (string, error) {
			return out + ":" + opts.Parser(), nil
		},
		FileFunc: func(_ context.Context, _ Options, parser, _, _ string) (string, error) {
			return out + ":" + parser, nil
		},
	}
}

func TestRouter_FirstClaimWins(t *testing.T) {
	r := NewRouter(
		Named{Name: "builtin", Backend: fixed([]string{"json", "yaml"}, "a")},
		Named{Name: "plugin", Backend: fixed([]string{"yaml", "sql"}, "b")},
	)
	ctx := context.Background()
	parsers, err := r.Init(ctx, 2)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if diff := cmp.Diff([]string{"json", "yaml", "sql"}, parsers); diff != "" {
		t.Fatalf("parsers (-want +got):\n%s", diff)
	}
	if got, _ := r.FormatFile(ctx, nil, "yaml", "a.yaml", ""); got != "a:yaml" {
		t.Fatalf("yaml routed to %q; want a:yaml", got)
	}
	if got, _ := r.FormatEmbedded(ctx, Options{}.WithParser("sql"), "sql", ""); got != "b:sql" {
		t.Fatalf("sql routed to %q; want b:sql", got)
	}
	if owner, ok := r.Owner("sql"); !ok || owner != "plugin" {
		t.Fatalf("Owner(sql) = %q, %v; want plugin", owner, ok)
	}
	if _, err := r.FormatFile(ctx, nil, "toml", "a.toml", ""); !errors.Is(err, ErrNoFormatter) {
		t.Fatalf("toml err = %v; want ErrNoFormatter", err)
	}
}

func TestRouter_InitErrorsAggregated(t *testing.T) {
	boom := func(msg string) Funcs {
		return Funcs{InitFunc: func(context.Context, int) ([]string, error) { return nil, errors.New(msg) }}
	}
	r := NewRouter(
		Named{Name: "one", Backend: boom("first")},
		Named{Name: "two", Backend: fixed([]string{"json"}, "ok")},
		Named{Name: "three", Backend: boom("second")},
	)
	parsers, err := r.Init(context.Background(), 1)
	if err == nil {
		t.Fatalf("Init succeeded; want error")
	}
	for _, want := range []string{"one: first", "three: second"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if diff := cmp.Diff([]string{"json"}, parsers); diff != "" {
		t.Fatalf("parsers (-want +got):\n%s", diff)
	}
}
