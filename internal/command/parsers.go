package command

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ParsersCommand lists the parsers the configured backends can serve.
type ParsersCommand struct {
	Meta
}

func (c *ParsersCommand) Help() string {
	return strings.TrimSpace(`
Usage: arkfmt parsers [options]

  Lists every parser identifier served by the built-in formatters,
  configured commands and dprint WASM plugins, with the backend that owns
  it. Parser identifiers double as template tags and file extensions.

Options:

  -config PATH   Configuration file.

  -plugin PATH   dprint WASM plugin to load. Repeatable.

  -verbose       Debug logging.
`)
}

func (c *ParsersCommand) Synopsis() string {
	return "Lists the available external parsers"
}

func (c *ParsersCommand) Run(args []string) int {
	fs := c.flagSet("parsers")
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	logger := c.logger()
	cfg, err := c.loadConfig()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	router, host, err := c.router(cfg, logger)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if host != nil {
		defer host.Close()
	}
	parsers, err := router.Init(context.Background(), 1)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Failed to setup external formatter: %v", err))
		return 1
	}
	slices.Sort(parsers)
	for _, p := range parsers {
		owner, _ := router.Owner(p)
		c.Ui.Output(fmt.Sprintf("%-16s %s", p, owner))
	}
	if host != nil {
		for _, info := range host.Plugins() {
			c.Ui.Info(fmt.Sprintf("plugin %s %s (%s)", info.Name, info.Version, info.ConfigKey))
		}
	}
	return 0
}
