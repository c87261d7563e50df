package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/csspublisher/cmd/csspublisher/commands"
	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/csspublisher/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("csspublisher"),
		kong.Description("Compile a subreddit stylesheet from git and publish it."),
		kong.Vars{"version": version.String()},
		kong.Bind(&commands.Global{}),
	)
	if err := ctx.Run(cli); err != nil {
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err))
	}
}
