package wasmhost

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/mridang/arkfmt/internal/dprint"
)

// configID is the only configuration each instance registers.
const configID = 1

// instance is one instantiated plugin with its own store. It is used by
// one call at a time.
type instance struct {
	store     *wasmer.Store
	inst      *wasmer.Instance
	memory    *wasmer.Memory
	funcs     map[string]wasmer.NativeFunction
	cancelled atomic.Bool
}

func newInstance(engine *wasmer.Engine, code []byte) (*instance, error) {
	in := &instance{store: wasmer.NewStore(engine), funcs: make(map[string]wasmer.NativeFunction)}
	module, err := wasmer.NewModule(in.store, code)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	in.inst, err = wasmer.NewInstance(module, hostImports(in.store, &in.cancelled))
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	in.memory, err = in.inst.Exports.GetMemory(dprint.ExportMemory)
	if err != nil {
		return nil, fmt.Errorf("memory export: %w", err)
	}
	for _, name := range dprint.RequiredExports {
		fn, err := in.inst.Exports.GetFunction(name)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		in.funcs[name] = fn
	}
	if initFn, err := in.inst.Exports.GetFunction(dprint.ExportInitialize); err == nil {
		if _, err := initFn(); err != nil {
			return nil, fmt.Errorf("%s trapped: %w", dprint.ExportInitialize, err)
		}
	}
	version, err := in.call(dprint.ExportPluginVersion)
	if err != nil {
		return nil, err
	}
	if version != dprint.PluginSchemaVersion {
		return nil, fmt.Errorf("plugin schema version %d; want %d", version, dprint.PluginSchemaVersion)
	}
	return in, nil
}

func (in *instance) close() {
	in.funcs = nil
	in.memory = nil
	in.inst.Close()
	in.store.Close()
}

// call invokes an export returning an i32 or nothing.
func (in *instance) call(name string, args ...any) (int32, error) {
	fn, ok := in.funcs[name]
	if !ok {
		return 0, fmt.Errorf("export %s not loaded", name)
	}
	v, err := fn(args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	n, _ := v.(int32)
	return n, nil
}

// write copies data into the plugin's shared buffer.
func (in *instance) write(data []byte) error {
	if len(data) > dprint.SharedBufferSize {
		return fmt.Errorf("payload of %d bytes exceeds the shared buffer", len(data))
	}
	ptr, err := in.call(dprint.ExportClearSharedBytes, int32(len(data))) //nolint:gosec // bounded above
	if err != nil {
		return err
	}
	mem := in.memory.Data()
	if int(ptr) < 0 || int(ptr)+len(data) > len(mem) {
		return errors.New("shared buffer outside plugin memory")
	}
	copy(mem[ptr:], data)
	return nil
}

// read copies n bytes out of the plugin's shared buffer.
func (in *instance) read(n int32) ([]byte, error) {
	ptr, err := in.call(dprint.ExportGetSharedBytesPtr)
	if err != nil {
		return nil, err
	}
	mem := in.memory.Data()
	if ptr < 0 || n < 0 || int(ptr)+int(n) > len(mem) {
		return nil, errors.New("shared buffer outside plugin memory")
	}
	out := make([]byte, n)
	copy(out, mem[ptr:int(ptr)+int(n)])
	return out, nil
}

// readResult calls an export that leaves n bytes in the shared buffer.
func (in *instance) readResult(name string, args ...any) ([]byte, error) {
	n, err := in.call(name, args...)
	if err != nil {
		return nil, err
	}
	return in.read(n)
}

func (in *instance) pluginInfo() (dprint.PluginInfo, error) {
	var info dprint.PluginInfo
	data, err := in.readResult(dprint.ExportGetPluginInfo)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("decode plugin info: %w", err)
	}
	return info, nil
}

func (in *instance) registerConfig(cfg dprint.RawConfig) ([]dprint.ConfigDiagnostic, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := in.write(data); err != nil {
		return nil, err
	}
	if _, err := in.call(dprint.ExportRegisterConfig, int32(configID)); err != nil {
		return nil, err
	}
	raw, err := in.readResult(dprint.ExportGetConfigDiagnostics, int32(configID))
	if err != nil {
		return nil, err
	}
	var diags []dprint.ConfigDiagnostic
	_ = json.Unmarshal(raw, &diags) // tolerate plugins answering with an empty buffer
	return diags, nil
}

func (in *instance) fileMatching() (dprint.FileMatchingInfo, error) {
	var m dprint.FileMatchingInfo
	data, err := in.readResult(dprint.ExportGetFileMatching, int32(configID))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode file matching: %w", err)
	}
	return m, nil
}

// format runs one formatting request. It returns the input unchanged when
// the plugin reports no change.
func (in *instance) format(path string, override []byte, code string) (string, error) {
	if err := in.write([]byte(path)); err != nil {
		return "", err
	}
	if _, err := in.call(dprint.ExportSetFilePath); err != nil {
		return "", err
	}
	if err := in.write(override); err != nil {
		return "", err
	}
	if _, err := in.call(dprint.ExportSetOverrideConfig); err != nil {
		return "", err
	}
	if err := in.write([]byte(code)); err != nil {
		return "", err
	}
	rc, err := in.call(dprint.ExportFormat, int32(configID))
	if err != nil {
		return "", err
	}
	switch rc {
	case dprint.FormatResultNoChange:
		return code, nil
	case dprint.FormatResultChanged:
		out, err := in.readResult(dprint.ExportGetFormattedText)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case dprint.FormatResultError:
		msg, err := in.readResult(dprint.ExportGetErrorText)
		if err != nil {
			return "", err
		}
		return "", errors.New(string(msg))
	default:
		return "", fmt.Errorf("format returned unknown result %d", rc)
	}
}
