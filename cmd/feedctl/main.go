// Command feedctl is a terminal client for the social feed.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sakif/social-feed/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
