// Command arkfmt formats ArkTS, TypeScript and JavaScript sources and the
// code embedded in their tagged template literals.
package main

import (
	"os"

	"github.com/mridang/arkfmt/internal/command"
)

func main() {
	os.Exit(command.Main(os.Args[1:]))
}
