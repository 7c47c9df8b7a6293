package command

import (
	"runtime/debug"

	"github.com/hashicorp/cli"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev" //nolint:gochecknoglobals // set by the linker

// VersionCommand prints the version.
type VersionCommand struct {
	Ui cli.Ui
}

func (c *VersionCommand) Help() string {
	return "Usage: arkfmt version\n\n  Prints the arkfmt version."
}

func (c *VersionCommand) Synopsis() string {
	return "Prints the version"
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output("arkfmt " + version())
	return 0
}

func version() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
