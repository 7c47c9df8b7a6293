package tags

import "testing"

func TestResolve_BuiltinTable(t *testing.T) {
	r := Default()
	cases := map[string]string{
		"css":        ParserCSS,
		"styled":     ParserCSS,
		"styled.div": ParserCSS,
		"keyframes":  ParserCSS,
		"gql":        ParserGraphQL,
		"graphql":    ParserGraphQL,
		"html":       ParserHTML,
		"markdown":   ParserMarkdown,
		"md":         ParserMarkdown,
	}
	for tag, want := range cases {
		got, ok := r.Resolve(tag)
		if !ok {
			t.Errorf("Resolve(%q) not found; want %q", tag, want)
			continue
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q; want %q", tag, got, want)
		}
	}
}

func TestResolve_UnknownTag(t *testing.T) {
	r := Default()
	for _, tag := range []string{"sql", "foo", "", "foo.css", "String.raw"} {
		if p, ok := r.Resolve(tag); ok {
			t.Errorf("Resolve(%q) = %q; want no mapping", tag, p)
		}
	}
}

func TestExtend_DiscoveredParsersBecomeTags(t *testing.T) {
	r := Default().Extend([]string{"sql", "sh", "css-custom"})
	if p, ok := r.Resolve("sql"); !ok || p != "sql" {
		t.Fatalf("Resolve(sql) = %q, %v; want sql, true", p, ok)
	}
	if p, ok := r.Resolve("sh"); !ok || p != "sh" {
		t.Fatalf("Resolve(sh) = %q, %v; want sh, true", p, ok)
	}
}

func TestExtend_BuiltinsWin(t *testing.T) {
	// A backend claiming "html" as its own parser must not change the
	// built-in mapping of the md tag.
	r := Default().Extend([]string{"md", "html"})
	if p, _ := r.Resolve("md"); p != ParserMarkdown {
		t.Fatalf("Resolve(md) = %q; want %q", p, ParserMarkdown)
	}
	if !IsBuiltin("md") || IsBuiltin("sql") {
		t.Fatalf("IsBuiltin mismatch")
	}
}

func TestExtend_EmptyKeepsResolver(t *testing.T) {
	r := Default()
	if got := r.Extend(nil); got != r {
		t.Fatalf("Extend(nil) returned a new resolver")
	}
}
