// Command dbsim manages a simulated multi-project database workspace.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/dbsim/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
