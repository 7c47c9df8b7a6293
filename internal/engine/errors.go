package engine

import "fmt"

// Kind classifies the failures reported by Format.
type Kind int

const (
	// KindUnsupportedFileType: no formatter owns the file.
	KindUnsupportedFileType Kind = iota
	// KindParse: the native parser rejected the file.
	KindParse
	// KindEmbeddedDelegation: an embedded region failed to format. Never
	// reported to callers; the region keeps its original text.
	KindEmbeddedDelegation
	// KindWholeFileDelegation: the backend failed on a foreign file.
	KindWholeFileDelegation
	// KindMissingCallback: a foreign file needs a backend operation that
	// was not supplied.
	KindMissingCallback
	// KindSetup: backend initialization failed.
	KindSetup
	// KindConfig: the options could not be interpreted.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFileType:
		return "unsupported file type"
	case KindParse:
		return "parse"
	case KindEmbeddedDelegation:
		return "embedded delegation"
	case KindWholeFileDelegation:
		return "whole-file delegation"
	case KindMissingCallback:
		return "missing callback"
	case KindSetup:
		return "setup"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a failure tied to one file.
type Error struct {
	Kind Kind
	File string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupportedFileType:
		return "Unsupported file type: " + e.File
	case KindMissingCallback:
		return "External formatter is required for file type: " + e.File
	case KindWholeFileDelegation:
		return fmt.Sprintf("Failed to format file with external formatter: %s\n%v", e.File, e.Err)
	case KindSetup:
		return fmt.Sprintf("Failed to setup external formatter: %v", e.Err)
	case KindConfig:
		return fmt.Sprintf("Failed to parse configuration: %v", e.Err)
	case KindEmbeddedDelegation:
		return fmt.Sprintf("Failed to format embedded code in %s: %v", e.File, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }
