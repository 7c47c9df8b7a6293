// Package wasm inspects and patches WebAssembly binaries before they are
// handed to the runtime.
package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// Wasm constants.
const (
	wasmHeaderSize         = 8
	wasmSectionIDExport    = 7
	wasmSectionIDStart     = 8
	wasmExportKindFunction = 0x00
	wasmVersion            = 1
	leb128ValueMask        = 0x7f
	leb128ContinueMask     = 0x80
	leb128MaxBytesU32      = 5
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d} //nolint:gochecknoglobals // \0asm

// section represents a WebAssembly section.
type section struct {
	id   byte
	body []byte
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// IsFunction reports whether the export is a function.
func (e Export) IsFunction() bool { return e.Kind == wasmExportKindFunction }

// Exports lists the exports of a module in declaration order.
func Exports(data []byte) ([]Export, error) {
	if err := ensureMagic(data); err != nil {
		return nil, err
	}
	secs, err := parseSections(data[wasmHeaderSize:])
	if err != nil {
		return nil, err
	}
	var out []Export
	for _, s := range secs {
		if s.id != wasmSectionIDExport {
			continue
		}
		exps, err := parseExports(s.body)
		if err != nil {
			return nil, err
		}
		out = append(out, exps...)
	}
	return out, nil
}

// RequireFunctions checks that every name is exported as a function.
func RequireFunctions(data []byte, names ...string) error {
	exps, err := Exports(data)
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range names {
		if !slices.ContainsFunc(exps, func(e Export) bool { return e.Name == name && e.IsFunction() }) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing function exports: %v", missing)
	}
	return nil
}

// HasStartSection reports whether the module declares a start function.
func HasStartSection(data []byte) bool {
	if ensureMagic(data) != nil {
		return false
	}
	secs, err := parseSections(data[wasmHeaderSize:])
	if err != nil {
		return false
	}
	return slices.ContainsFunc(secs, func(s section) bool { return s.id == wasmSectionIDStart })
}

// SetStart makes the exported function named export the module's start
// function, replacing any existing start section. The new section is
// placed after the sections that must precede it.
func SetStart(data []byte, export string) ([]byte, error) {
	exps, err := Exports(data)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(exps, func(e Export) bool { return e.Name == export && e.IsFunction() })
	if i < 0 {
		return nil, fmt.Errorf("export %s not found", export)
	}
	secs, err := parseSections(StripStartSection(data)[wasmHeaderSize:])
	if err != nil {
		return nil, err
	}
	at := 0
	for at < len(secs) && secs[at].id <= wasmSectionIDStart {
		at++
	}
	secs = slices.Insert(secs, at, section{id: wasmSectionIDStart, body: writeU32(exps[i].Index)})

	var out bytes.Buffer
	out.Write(data[:wasmHeaderSize])
	for _, s := range secs {
		out.WriteByte(s.id)
		out.Write(writeU32(uint32(len(s.body)))) //nolint:gosec // sections are far below 4GB
		out.Write(s.body)
	}
	return out.Bytes(), nil
}

// ensureMagic checks for the Wasm magic bytes and version.
func ensureMagic(b []byte) error {
	if len(b) < wasmHeaderSize {
		return errors.New("file too small")
	}
	if !bytes.Equal(b[:4], wasmMagic) {
		return errors.New("bad wasm magic")
	}
	if binary.LittleEndian.Uint32(b[4:wasmHeaderSize]) != wasmVersion {
		return errors.New("unsupported wasm version")
	}
	return nil
}

// parseSections splits the module body into its sections.
func parseSections(b []byte) ([]section, error) {
	var secs []section
	off := 0
	for off < len(b) {
		id := b[off]
		off++

		size, n := readU32(b[off:])
		if n == 0 {
			return nil, errors.New("invalid section size")
		}
		off += n

		if off+int(size) > len(b) {
			return nil, errors.New("section exceeds file")
		}
		secs = append(secs, section{id: id, body: b[off : off+int(size)]})
		off += int(size)
	}
	return secs, nil
}

// parseExports decodes the body of an export section.
func parseExports(b []byte) ([]Export, error) {
	count, off := readU32(b)
	if off == 0 {
		return nil, errors.New("bad export count")
	}
	out := make([]Export, 0, count)
	for range count {
		name, n := readName(b[off:])
		if n == 0 {
			return nil, errors.New("bad export name")
		}
		off += n

		if off >= len(b) {
			return nil, errors.New("truncated export kind")
		}
		kind := b[off]
		off++

		idx, ni := readU32(b[off:])
		if ni == 0 {
			return nil, errors.New("bad export index")
		}
		off += ni

		out = append(out, Export{Name: name, Kind: kind, Index: idx})
	}
	return out, nil
}

// readU32 reads a LEB128-encoded unsigned 32-bit integer.
func readU32(b []byte) (uint32, int) {
	var x uint32
	var s uint
	for i := 0; i < len(b) && i < leb128MaxBytesU32; i++ {
		c := b[i]
		x |= uint32(c&leb128ValueMask) << s
		if c&leb128ContinueMask == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}

// writeU32 writes x as a LEB128-encoded unsigned 32-bit integer.
func writeU32(x uint32) []byte {
	var out []byte
	for {
		c := byte(x & leb128ValueMask)
		x >>= 7
		if x != 0 {
			c |= leb128ContinueMask
		}
		out = append(out, c)
		if x == 0 {
			return out
		}
	}
}

// readName reads a length-prefixed UTF-8 name.
func readName(b []byte) (string, int) {
	l, n := readU32(b)
	if n == 0 {
		return "", 0
	}
	if int(l)+n > len(b) {
		return "", 0
	}
	return string(b[n : n+int(l)]), n + int(l)
}

// StripStartSection removes the start section (id 8) if present; the
// runtime would otherwise run it before the host imports are usable.
// Malformed input is returned unchanged.
func StripStartSection(b []byte) []byte {
	if len(b) < wasmHeaderSize {
		return b
	}
	rest := b[wasmHeaderSize:]

	out := make([]byte, 0, len(b))
	out = append(out, b[:wasmHeaderSize]...)

	for off := 0; off < len(rest); {
		id := rest[off]
		off++
		size, n := readU32(rest[off:])
		if n == 0 || off+n+int(size) > len(rest) {
			return b
		}
		off += n
		body := rest[off : off+int(size)]
		if id != wasmSectionIDStart {
			out = append(out, id)
			out = append(out, writeU32(size)...)
			out = append(out, body...)
		}
		off += int(size)
	}
	return out
}
