package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsmartlabs/supa/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	exitFn  = os.Exit
	runFn   = cli.RunContext
)

func main() {
	exitFn(runMain(os.Args, os.Stdout, os.Stderr, version, commit, date, runFn))
}

func runMain(args []string, stdout, stderr io.Writer, version, commit, date string, run func(context.Context, []string, io.Writer, io.Writer, cli.Dependencies) int) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// After the first signal, restore the default handling so a second one
	// kills a command stuck on a prompt.
	go func() {
		<-ctx.Done()
		stop()
	}()
	return run(ctx, args, stdout, stderr, cli.DefaultDependencies(version, commit, date))
}
