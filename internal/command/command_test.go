package command

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/cli"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func newFormat(dir string) (*FormatCommand, *cli.MockUi) {
	ui := cli.NewMockUi()
	return &FormatCommand{Meta: Meta{Ui: ui, LogWriter: io.Discard, WorkingDir: dir}}, ui
}

func TestFormat_MissingPattern(t *testing.T) {
	c, ui := newFormat(t.TempDir())
	if code := c.Run(nil); code != 1 {
		t.Fatalf("exit = %d; want 1", code)
	}
	if got := ui.ErrorWriter.String(); !strings.Contains(got, "Missing file pattern") {
		t.Fatalf("stderr = %q", got)
	}
}

func TestFormat_NoFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.bin": "x", "skip/b.ts": "x"})
	c, ui := newFormat(dir)
	if code := c.Run([]string{"-exclude", "skip", dir}); code != 1 {
		t.Fatalf("exit = %d; want 1", code)
	}
	if got := ui.ErrorWriter.String(); !strings.Contains(got, "No files matched the provided patterns (after excludes)") {
		t.Fatalf("stderr = %q", got)
	}
}

func TestFormat_WritesFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.ts":      "const x=1;",
		"src/b.ets":     "let y = 2;\n",
		"conf/app.yaml": "a:   1\n",
	})
	c, ui := newFormat(dir)
	if code := c.Run([]string{"-t", "2", dir}); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
	if got := readFile(t, filepath.Join(dir, "src", "a.ts")); got != "const x = 1;\n" {
		t.Fatalf("a.ts = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "conf", "app.yaml")); got != "a: 1\n" {
		t.Fatalf("app.yaml = %q", got)
	}
	out := ui.OutputWriter.String()
	if !strings.Contains(out, filepath.Join("src", "a.ts")) || strings.Contains(out, filepath.Join("src", "b.ets")) {
		t.Fatalf("stdout = %q; want only the changed files listed", out)
	}
	if !strings.Contains(out, "Formatted 3 files, 2 changed") {
		t.Fatalf("stdout = %q; want the summary", out)
	}
}

func TestFormat_Check(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.ts": "const x=1;", "b.ts": "const y = 2;\n"})
	c, ui := newFormat(dir)
	if code := c.Run([]string{"-check", dir}); code != 1 {
		t.Fatalf("exit = %d; want 1", code)
	}
	if got := readFile(t, filepath.Join(dir, "a.ts")); got != "const x=1;" {
		t.Fatalf("a.ts = %q; want untouched", got)
	}
	stderr := ui.ErrorWriter.String()
	if !strings.Contains(stderr, "a.ts") || strings.Contains(stderr, "b.ts") {
		t.Fatalf("stderr = %q; want only a.ts reported", stderr)
	}
	if !strings.Contains(stderr, "1 of 2 files are not formatted") {
		t.Fatalf("stderr = %q; want the summary", stderr)
	}

	c, ui = newFormat(dir)
	if code := c.Run([]string{"-check", filepath.Join(dir, "b.ts")}); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
}

func TestFormat_Diff(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.ts": "const x=1;\n"})
	c, ui := newFormat(dir)
	if code := c.Run([]string{"-diff", dir}); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
	out := ui.OutputWriter.String()
	for _, want := range []string{"-const x=1;", "+const x = 1;", "@@"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout = %q; want %q", out, want)
		}
	}
	if got := readFile(t, filepath.Join(dir, "a.ts")); got != "const x=1;\n" {
		t.Fatalf("a.ts = %q; want untouched", got)
	}
}

func TestFormat_ReportsErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.ts": "function f() {", "good.ts": "let a=1;"})
	c, ui := newFormat(dir)
	if code := c.Run([]string{dir}); code != 1 {
		t.Fatalf("exit = %d; want 1", code)
	}
	if got := ui.ErrorWriter.String(); !strings.Contains(got, `unclosed "{"`) {
		t.Fatalf("stderr = %q; want the parse error", got)
	}
	if got := readFile(t, filepath.Join(dir, "good.ts")); got != "let a = 1;\n" {
		t.Fatalf("good.ts = %q; want formatted despite the other failure", got)
	}
}

func TestFormat_Config(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		".arkfmtrc.json": `{"indentWidth": 4, "ignorePatterns": ["**/vendor/**"]}`,
		"a.ts":           "if (x) {\ny();\n}",
		"vendor/b.ts":    "let b=1;",
	})
	c, ui := newFormat(dir)
	if code := c.Run([]string{dir}); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
	if got := readFile(t, filepath.Join(dir, "a.ts")); got != "if (x) {\n    y();\n}\n" {
		t.Fatalf("a.ts = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "vendor", "b.ts")); got != "let b=1;" {
		t.Fatalf("vendor/b.ts = %q; want ignored", got)
	}
}

func TestFormat_InvalidConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{"cfg.yaml": "indentWidth: wide\n", "a.ts": "x"})
	c, ui := newFormat(dir)
	if code := c.Run([]string{"-config", filepath.Join(dir, "cfg.yaml"), dir}); code != 1 {
		t.Fatalf("exit = %d; want 1", code)
	}
	if got := ui.ErrorWriter.String(); !strings.HasPrefix(got, "Failed to parse configuration: ") {
		t.Fatalf("stderr = %q", got)
	}
}

func TestFormat_CommandBackend(t *testing.T) {
	if _, err := exec.LookPath("tr"); err != nil {
		t.Skip("tr not in PATH")
	}
	dir := writeFiles(t, map[string]string{
		".arkfmtrc.yaml": "commands:\n  sql: tr a-z A-Z\n",
		"q.sql":          "select 1\n",
		"a.ts":           "const q = sql`select 2`;\n",
	})
	c, ui := newFormat(dir)
	if code := c.Run([]string{dir}); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
	if got := readFile(t, filepath.Join(dir, "q.sql")); got != "SELECT 1\n" {
		t.Fatalf("q.sql = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "a.ts")); got != "const q = sql`SELECT 2`;\n" {
		t.Fatalf("a.ts = %q", got)
	}
}

func TestParsers(t *testing.T) {
	ui := cli.NewMockUi()
	c := &ParsersCommand{Meta: Meta{Ui: ui, LogWriter: io.Discard, WorkingDir: t.TempDir()}}
	if code := c.Run(nil); code != 0 {
		t.Fatalf("exit = %d; stderr = %s", code, ui.ErrorWriter.String())
	}
	out := ui.OutputWriter.String()
	for _, p := range []string{"go", "hcl", "json", "sh", "yaml"} {
		if !strings.Contains(out, p) {
			t.Fatalf("stdout = %q; want parser %s", out, p)
		}
	}
	if !strings.Contains(out, "builtin") {
		t.Fatalf("stdout = %q; want the owning backend", out)
	}
}

func TestVersion(t *testing.T) {
	ui := cli.NewMockUi()
	if code := (&VersionCommand{Ui: ui}).Run(nil); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if got := ui.OutputWriter.String(); !strings.HasPrefix(got, "arkfmt ") {
		t.Fatalf("stdout = %q", got)
	}
}

func TestCommands(t *testing.T) {
	cmds := Commands(Meta{Ui: cli.NewMockUi()})
	for _, name := range []string{"format", "parsers", "version"} {
		factory, ok := cmds[name]
		if !ok {
			t.Fatalf("missing command %s", name)
		}
		cmd, err := factory()
		if err != nil || cmd.Synopsis() == "" || cmd.Help() == "" {
			t.Fatalf("command %s: %v", name, err)
		}
	}
}
