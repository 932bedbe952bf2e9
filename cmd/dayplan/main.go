package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dayplan/cmd/dayplan/commands"
	"git.home.luguber.info/inful/dayplan/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("dayplan"),
		kong.Description("Personal task planner with recurring tasks and automatic rollover."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}, cli))
}
