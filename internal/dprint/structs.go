package dprint

// PluginInfo represents the JSON structure returned by get_plugin_info.
// See: https://dprint.dev/plugins/wasm/#get_plugin_info
type PluginInfo struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	ConfigKey       string   `json:"configKey"`
	FileExtensions  []string `json:"fileExtensions"`
	FileNames       []string `json:"fileNames"`
	HelpURL         string   `json:"helpUrl"`
	ConfigSchemaURL string   `json:"configSchemaUrl"`
}

// FileMatchingInfo represents the JSON structure returned by
// get_config_file_matching.
type FileMatchingInfo struct {
	FileExtensions []string `json:"fileExtensions"`
	FileNames      []string `json:"fileNames"`
}

// GlobalConfig is the global section of the configuration sent to
// register_config.
type GlobalConfig struct {
	LineWidth   *int    `json:"lineWidth,omitempty"`
	IndentWidth *int    `json:"indentWidth,omitempty"`
	UseTabs     *bool   `json:"useTabs,omitempty"`
	NewLineKind *string `json:"newLineKind,omitempty"`
}

// RawConfig is the payload of register_config.
type RawConfig struct {
	Plugin map[string]any `json:"plugin"`
	Global GlobalConfig   `json:"global"`
}

// ConfigDiagnostic is one entry of get_config_diagnostics.
type ConfigDiagnostic struct {
	PropertyName string `json:"propertyName"`
	Message      string `json:"message"`
}

// GlobalFrom picks the global keys out of a free-form option map. Keys with
// a value of the wrong type are ignored.
func GlobalFrom(opts map[string]any) GlobalConfig {
	var g GlobalConfig
	if n, ok := intValue(opts["printWidth"]); ok {
		g.LineWidth = &n
	}
	if n, ok := intValue(opts["lineWidth"]); ok {
		g.LineWidth = &n
	}
	if n, ok := intValue(opts["indentWidth"]); ok {
		g.IndentWidth = &n
	}
	if b, ok := opts["useTabs"].(bool); ok {
		g.UseTabs = &b
	}
	if s, ok := opts["newLineKind"].(string); ok {
		g.NewLineKind = &s
	}
	return g
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	}
	return 0, false
}
