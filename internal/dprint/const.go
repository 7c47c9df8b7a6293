// Package dprint describes the dprint WASM plugin ABI (schema version 4),
// shared by the plugin host and the arkfmt plugin.
package dprint

// PluginSchemaVersion is the only schema version spoken.
const PluginSchemaVersion = 4

// SharedBufferSize is the largest payload a plugin's shared buffer holds
// in plugins built from the reference SDK (1MB).
const SharedBufferSize = 1 << 20

// Results of the format export.
const (
	FormatResultNoChange = 0 // text is already formatted
	FormatResultChanged  = 1 // formatted text is available
	FormatResultError    = 2 // error text is available
)

// Functions a plugin exports.
const (
	ExportInitialize           = "_initialize"
	ExportMemory               = "memory"
	ExportGetSharedBytesPtr    = "get_shared_bytes_ptr"
	ExportClearSharedBytes     = "clear_shared_bytes"
	ExportPluginVersion        = "dprint_plugin_version_4"
	ExportGetPluginInfo        = "get_plugin_info"
	ExportGetLicenseText       = "get_license_text"
	ExportRegisterConfig       = "register_config"
	ExportReleaseConfig        = "release_config"
	ExportGetConfigDiagnostics = "get_config_diagnostics"
	ExportGetResolvedConfig    = "get_resolved_config"
	ExportGetFileMatching      = "get_config_file_matching"
	ExportSetFilePath          = "set_file_path"
	ExportSetOverrideConfig    = "set_override_config"
	ExportFormat               = "format"
	ExportGetFormattedText     = "get_formatted_text"
	ExportGetErrorText         = "get_error_text"
)

// RequiredExports lists the exports a plugin must provide to be loaded.
var RequiredExports = []string{ //nolint:gochecknoglobals // static table
	ExportGetSharedBytesPtr,
	ExportClearSharedBytes,
	ExportPluginVersion,
	ExportGetPluginInfo,
	ExportRegisterConfig,
	ExportReleaseConfig,
	ExportGetConfigDiagnostics,
	ExportGetFileMatching,
	ExportSetFilePath,
	ExportSetOverrideConfig,
	ExportFormat,
	ExportGetFormattedText,
	ExportGetErrorText,
}

// HostModule is the import namespace of the host functions.
const HostModule = "dprint"

// Functions the host provides to a plugin.
const (
	HostWriteBuffer      = "host_write_buffer"
	HostFormat           = "host_format"
	HostGetFormattedText = "host_get_formatted_text"
	HostGetErrorText     = "host_get_error_text"
	HostHasCancelled     = "host_has_cancelled"
)
