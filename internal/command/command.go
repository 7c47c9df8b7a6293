package command

import (
	"io"
	"os"

	"github.com/hashicorp/cli"
	"github.com/mattn/go-isatty"
)

// Commands returns the command table.
func Commands(meta Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"format": func() (cli.Command, error) {
			return &FormatCommand{Meta: meta}, nil
		},
		"parsers": func() (cli.Command, error) {
			return &ParsersCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Ui: meta.Ui}, nil
		},
	}
}

// NewUi writes to stdout and stderr, with colors when stdout is a
// terminal.
func NewUi(stdin io.Reader, stdout, stderr io.Writer) cli.Ui {
	ui := &cli.BasicUi{Reader: stdin, Writer: stdout, ErrorWriter: stderr}
	if f, ok := stdout.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return &cli.ColoredUi{
			Ui:         ui,
			InfoColor:  cli.UiColorGreen,
			WarnColor:  cli.UiColorYellow,
			ErrorColor: cli.UiColorRed,
		}
	}
	return ui
}

// Main runs the command line and returns the exit status.
func Main(args []string) int {
	ui := NewUi(os.Stdin, os.Stdout, os.Stderr)
	c := cli.NewCLI("arkfmt", version())
	c.Args = args
	c.Commands = Commands(Meta{Ui: ui, LogWriter: os.Stderr})
	c.HelpWriter = os.Stderr

	status, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return status
}
