// Command arkfmt-dprint is the arkfmt formatter packaged as a dprint WASM
// plugin. Embedded code is handed back to dprint through host_format, so
// the CSS, GraphQL, HTML and Markdown inside tagged templates are
// formatted by whichever dprint plugins the user has installed.
//
//	tinygo build -o build/arkfmt.raw.wasm -target=wasm-unknown -scheduler=none -no-debug -opt=2 ./cmd/arkfmt-dprint
//	go run ./cmd/addstart build/arkfmt.raw.wasm build/arkfmt.wasm
package main

import (
	"encoding/json"
	"unsafe"

	"github.com/mridang/arkfmt/internal/dprint"
)

// Global state variables.
var (
	shared      [dprint.SharedBufferSize]byte //nolint:gochecknoglobals // shared with the host
	activeSize  uint32                        //nolint:gochecknoglobals // shared with the host
	initialized bool                          //nolint:gochecknoglobals // plugin lifetime
	state       *plugin                       //nolint:gochecknoglobals // plugin lifetime
)

// ensureInit creates the plugin state on the first exported call.
func ensureInit() {
	if !initialized {
		initialized = true
		state = newPlugin()
		_ = uintptr(unsafe.Pointer(&shared[0]))
	}
}

// putShared stores a result for the CLI and returns its length. Results
// larger than the buffer are cut off.
func putShared(b []byte) uint32 {
	ensureInit()
	if b == nil {
		activeSize = 0
		return 0
	}
	if len(b) > len(shared) {
		b = b[:len(shared)]
	}
	n := copy(shared[:], b)
	activeSize = uint32(n)
	return activeSize
}

// takeShared returns a copy of the bytes the CLI last wrote.
func takeShared() []byte {
	size := activeSize
	if size > dprint.SharedBufferSize {
		size = dprint.SharedBufferSize
	}
	out := make([]byte, size)
	copy(out, shared[:size])
	return out
}

func putJSON(v any, fallback string) uint32 {
	data, err := json.Marshal(v)
	if err != nil {
		return putShared([]byte(fallback))
	}
	return putShared(data)
}

//go:wasmexport get_shared_bytes_ptr
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_shared_bytes_ptr() uint32 {
	ensureInit()
	return uint32(uintptr(unsafe.Pointer(&shared[0])))
}

// clear_shared_bytes prepares the buffer for size bytes written by the CLI.
// See: https://dprint.dev/plugins/wasm/#clear_shared_bytes
//
//go:wasmexport clear_shared_bytes
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func clear_shared_bytes(size uint32) uint32 {
	ensureInit()
	if size > dprint.SharedBufferSize {
		size = dprint.SharedBufferSize
	}
	activeSize = size
	return uint32(uintptr(unsafe.Pointer(&shared[0])))
}

//go:wasmexport dprint_plugin_version_4
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func dprint_plugin_version_4() uint32 {
	ensureInit()
	return dprint.PluginSchemaVersion
}

//go:wasmexport get_plugin_info
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_plugin_info() uint32 {
	ensureInit()
	return putJSON(state.info(), "{}")
}

//go:wasmexport get_license_text
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_license_text() uint32 {
	ensureInit()
	return putShared([]byte(licenseText))
}

// register_config reads the configuration JSON the CLI wrote to the shared
// buffer and stores it under config_id.
// See: https://dprint.dev/plugins/wasm/#register_config
//
//go:wasmexport register_config
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func register_config(config_id uint32) {
	ensureInit()
	state.register(config_id, takeShared())
}

//go:wasmexport release_config
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func release_config(config_id uint32) {
	ensureInit()
	delete(state.configs, config_id)
}

// get_config_diagnostics returns the problems found in a configuration.
// See: https://dprint.dev/plugins/wasm/#get_config_diagnostics
//
//go:wasmexport get_config_diagnostics
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_config_diagnostics(config_id uint32) uint32 {
	ensureInit()
	diags := state.config(config_id).Diagnostics
	if diags == nil {
		diags = []dprint.ConfigDiagnostic{}
	}
	return putJSON(diags, "[]")
}

//go:wasmexport get_resolved_config
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_resolved_config(config_id uint32) uint32 {
	ensureInit()
	return putJSON(state.config(config_id).Options, "{}")
}

//go:wasmexport get_config_file_matching
//go:noinline
//goland:noinspection GoUnusedFunction,GoUnusedParameter,GoSnakeCaseUsage
func get_config_file_matching(config_id uint32) uint32 {
	ensureInit()
	matching := dprint.FileMatchingInfo{
		FileExtensions: pluginExtensions,
		FileNames:      []string{},
	}
	return putJSON(matching, `{"fileExtensions":[],"fileNames":[]}`)
}

// set_file_path reads the path of the next file from the shared buffer.
// See: https://dprint.dev/plugins/wasm/#set_file_path
//
//go:wasmexport set_file_path
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func set_file_path() {
	ensureInit()
	state.filePath = string(takeShared())
}

// set_override_config reads per-file overrides from the shared buffer.
// They apply to the next format call only.
// See: https://dprint.dev/plugins/wasm/#set_override_config
//
//go:wasmexport set_override_config
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func set_override_config() {
	ensureInit()
	state.override = takeShared()
}

// format formats the file text in the shared buffer. Returns
// FormatResultNoChange, FormatResultChanged or FormatResultError.
// See: https://dprint.dev/plugins/wasm/#format
//
//go:wasmexport format
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func format(config_id uint32) uint32 {
	ensureInit()
	code := string(takeShared())
	formatted, changed, err := state.format(config_id, code)
	state.override = nil
	switch {
	case err != nil:
		putShared([]byte(err.Error()))
		return dprint.FormatResultError
	case !changed:
		return dprint.FormatResultNoChange
	}
	putShared([]byte(formatted))
	return dprint.FormatResultChanged
}

//go:wasmexport get_formatted_text
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_formatted_text() uint32 {
	ensureInit()
	return activeSize
}

//go:wasmexport get_error_text
//go:noinline
//goland:noinspection GoUnusedFunction,GoSnakeCaseUsage
func get_error_text() uint32 {
	ensureInit()
	return activeSize
}

func main() {
	ensureInit()
}
