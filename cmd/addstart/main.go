// Command addstart patches a TinyGo build of the arkfmt dprint plugin so
// that dprint runs its initializer: the exported _initialize function
// becomes the module's start function.
//
//	tinygo build -o build/arkfmt.raw.wasm -target=wasm-unknown -scheduler=none ./cmd/arkfmt-dprint
//	go run ./cmd/addstart build/arkfmt.raw.wasm build/arkfmt.wasm
package main

import (
	"flag"
	"log"
	"os"

	"github.com/mridang/arkfmt/internal/dprint"
	"github.com/mridang/arkfmt/internal/wasm"
)

func main() {
	export := flag.String("export", dprint.ExportInitialize, "function to run at instantiation")
	flag.Parse()
	if flag.NArg() != 2 {
		log.Fatalf("Usage: %s [-export NAME] <input.wasm> <output.wasm>", os.Args[0])
	}
	inPath, outPath := flag.Arg(0), flag.Arg(1)

	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := wasm.RequireFunctions(data, dprint.RequiredExports...); err != nil {
		log.Fatalf("%s is not a dprint plugin: %v", inPath, err)
	}

	out, err := wasm.SetStart(data, *export)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil { //nolint:gosec // build artifact
		log.Fatal(err)
	}
}
