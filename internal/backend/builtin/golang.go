package builtin

import (
	"go/format"

	"github.com/mridang/arkfmt/internal/backend"
)

// formatGo runs gofmt. Go formatting has no options.
func formatGo(src []byte, _ backend.Options) ([]byte, error) {
	return format.Source(src)
}
