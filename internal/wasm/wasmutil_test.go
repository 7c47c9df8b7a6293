package wasm

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// buildModule assembles a module from raw sections. The sections are not
// validated, which is enough for the byte-level helpers.
func buildModule(t *testing.T, secs ...section) []byte {
	t.Helper()
	var out bytes.Buffer
	out.Write(wasmMagic)
	out.Write([]byte{wasmVersion, 0, 0, 0})
	for _, s := range secs {
		out.WriteByte(s.id)
		out.Write(writeU32(uint32(len(s.body)))) //nolint:gosec // test input
		out.Write(s.body)
	}
	return out.Bytes()
}

func exportSection(exps ...Export) section {
	body := writeU32(uint32(len(exps))) //nolint:gosec // test input
	for _, e := range exps {
		body = append(body, writeU32(uint32(len(e.Name)))...) //nolint:gosec // test input
		body = append(body, e.Name...)
		body = append(body, e.Kind)
		body = append(body, writeU32(e.Index)...)
	}
	return section{id: wasmSectionIDExport, body: body}
}

func TestExports(t *testing.T) {
	want := []Export{
		{Name: "memory", Kind: 0x02, Index: 0},
		{Name: "format", Kind: wasmExportKindFunction, Index: 3},
		{Name: "_initialize", Kind: wasmExportKindFunction, Index: 200},
	}
	mod := buildModule(t, section{id: 1, body: []byte{0}}, exportSection(want...))
	got, err := Exports(mod)
	if err != nil {
		t.Fatalf("Exports: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("exports (-want +got):\n%s", diff)
	}
	if err := RequireFunctions(mod, "format", "_initialize"); err != nil {
		t.Fatalf("RequireFunctions: %v", err)
	}
	if err := RequireFunctions(mod, "format", "memory", "get_error_text"); err == nil {
		t.Fatalf("RequireFunctions accepted a non-function and a missing export")
	}
}

func TestExports_Malformed(t *testing.T) {
	if _, err := Exports([]byte("nope")); err == nil {
		t.Fatalf("short input accepted")
	}
	if _, err := Exports([]byte("\x00asn\x01\x00\x00\x00")); err == nil {
		t.Fatalf("bad magic accepted")
	}
	truncated := buildModule(t, exportSection(Export{Name: "format"}))
	truncated = truncated[:len(truncated)-2]
	if _, err := Exports(truncated); err == nil {
		t.Fatalf("truncated section accepted")
	}
}

func TestStripStartSection(t *testing.T) {
	exp := exportSection(Export{Name: "_initialize", Index: 1})
	start := section{id: wasmSectionIDStart, body: writeU32(1)}
	code := section{id: 10, body: []byte{0}}
	mod := buildModule(t, exp, start, code)
	if !HasStartSection(mod) {
		t.Fatalf("HasStartSection = false before stripping")
	}

	stripped := StripStartSection(mod)
	if HasStartSection(stripped) {
		t.Fatalf("start section still present")
	}
	if want := buildModule(t, exp, code); !bytes.Equal(stripped, want) {
		t.Fatalf("StripStartSection = %x; want %x", stripped, want)
	}
	if again := StripStartSection(stripped); !bytes.Equal(again, stripped) {
		t.Fatalf("StripStartSection not idempotent")
	}

	bad := []byte{1, 2, 3}
	if got := StripStartSection(bad); !bytes.Equal(got, bad) {
		t.Fatalf("malformed input changed")
	}
}

func TestLEB128(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1} {
		enc := writeU32(v)
		got, n := readU32(enc)
		if got != v || n != len(enc) {
			t.Errorf("readU32(writeU32(%d)) = %d, %d; want %d, %d", v, got, n, v, len(enc))
		}
	}
	if _, n := readU32([]byte{0x80, 0x80}); n != 0 {
		t.Fatalf("unterminated LEB128 accepted")
	}
}

func TestSetStart(t *testing.T) {
	typ := section{id: 1, body: []byte{0}}
	exp := exportSection(Export{Name: "_initialize", Kind: wasmExportKindFunction, Index: 300})
	code := section{id: 10, body: []byte{0}}
	oldStart := section{id: wasmSectionIDStart, body: writeU32(7)}

	got, err := SetStart(buildModule(t, typ, exp, oldStart, code), "_initialize")
	if err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	want := buildModule(t, typ, exp, section{id: wasmSectionIDStart, body: writeU32(300)}, code)
	if !bytes.Equal(got, want) {
		t.Fatalf("SetStart = %x; want %x", got, want)
	}
	if !bytes.Equal(StripStartSection(got), buildModule(t, typ, exp, code)) {
		t.Fatalf("StripStartSection does not undo SetStart")
	}

	if _, err := SetStart(buildModule(t, typ, exp), "main"); err == nil {
		t.Fatalf("SetStart accepted a missing export")
	}
}
