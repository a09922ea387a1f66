// trim finds local (and their corresponding remote) Git branches that have
// already been merged, or have gone stray after their upstream disappeared,
// and optionally deletes them.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.abhg.dev/trim/internal/cli"
	"go.abhg.dev/trim/internal/silog"
)

func main() {
	log := silog.New(os.Stderr, &silog.Options{Level: silog.LevelInfo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		log.Info("cleaning up, press Ctrl-C again to exit immediately")
		cancel()
	}()

	var cmd cli.Cmd
	kctx := kong.Parse(
		&cmd,
		kong.Name("trim"),
		kong.Description("Find and delete merged or stray Git branches."),
		kong.UsageOnError(),
	)

	kctx.FatalIfErrorf(cmd.Run(ctx, os.Stdout, log))
}
