// Command union-gen generates tagged union types from annotated Go
// interfaces and YAML schemas.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gork-labs/uniongen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
