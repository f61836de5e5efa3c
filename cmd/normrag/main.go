// Command normrag answers questions from Russian regulatory documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/normrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/normrag/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := env.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}
	cli.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
