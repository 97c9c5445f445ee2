package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/ftpvault/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(cli.HandleError(run(), os.Stderr))
}

func run() error {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	// Ctrl-C cancels the running transfer; transacted uploads are aborted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCommand().ExecuteContext(ctx)
}
