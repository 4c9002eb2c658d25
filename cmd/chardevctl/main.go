package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/GriffinCanCode/chardrv/internal/cli"
)

func main() {
	var globals cli.Globals
	globals.SetFlags(flag.CommandLine)

	cli.Register(subcommands.DefaultCommander, &globals, os.Stdin)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx, cli.Streams(os.Stdout, os.Stderr))
	stop()
	os.Exit(int(status))
}
