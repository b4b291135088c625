package main

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/luxd/cmd/luxd/commands"
	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("luxd"),
		kong.Description("Networked lighting fixture control daemon"),
		kong.Vars{"version": fmt.Sprintf("luxd %s (%s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(global, &cli); err != nil {
		adapter := luxerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		adapter.HandleError(err)
	}
}
