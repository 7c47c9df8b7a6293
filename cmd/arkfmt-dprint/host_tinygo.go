//go:build tinygo

package main

import (
	"errors"
	"unsafe"

	"github.com/mridang/arkfmt/internal/dprint"
)

//go:wasmimport dprint host_write_buffer
func host_write_buffer(ptr uint32)

//go:wasmimport dprint host_format
func host_format(filePathPtr, filePathLen, rangeStart, rangeEnd, overridePtr, overrideLen, fileBytesPtr, fileBytesLen uint32) uint32

//go:wasmimport dprint host_get_formatted_text
func host_get_formatted_text() uint32

//go:wasmimport dprint host_get_error_text
func host_get_error_text() uint32

//go:wasmimport dprint host_has_cancelled
func host_has_cancelled() uint32

func init() {
	hostFormat = formatViaHost
	hostCancelled = func() bool { return host_has_cancelled() != 0 }
}

func bytesPtr(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}

// readHost copies n bytes the host holds for us into plugin memory.
func readHost(n uint32) []byte {
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	host_write_buffer(bytesPtr(buf))
	return buf
}

func formatViaHost(path string, override []byte, code string) (string, bool, error) {
	p, c := []byte(path), []byte(code)
	rc := host_format(
		bytesPtr(p), uint32(len(p)),
		0, uint32(len(c)),
		bytesPtr(override), uint32(len(override)),
		bytesPtr(c), uint32(len(c)),
	)
	switch rc {
	case dprint.FormatResultNoChange:
		return code, false, nil
	case dprint.FormatResultChanged:
		return string(readHost(host_get_formatted_text())), true, nil
	default:
		return "", false, errors.New(string(readHost(host_get_error_text())))
	}
}
