package main

import (
	"fmt"
	"strings"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli"
)

// manpageCommand renders the command list as a troff man page. It's
// hidden from --help since it exists for packaging, not interactive use.
var manpageCommand = cli.Command{
	Name:   "manpage",
	Usage:  "print a man page for neoshell to stdout",
	Hidden: true,
	Action: func(context *cli.Context) error {
		app := context.App
		var md strings.Builder
		fmt.Fprintf(&md, "# %s 1\n\n## NAME\n\n%s - %s\n\n## COMMANDS\n\n", app.Name, app.Name, app.Usage)
		for _, cmd := range app.Commands {
			if cmd.Hidden {
				continue
			}
			fmt.Fprintf(&md, "**%s** %s\n: %s\n\n", cmd.Name, cmd.ArgsUsage, cmd.Usage)
		}
		fmt.Println(string(md2man.Render([]byte(md.String()))))
		return nil
	},
}
