// Comparison poster generates product-comparison articles from catalog
// search results and publishes them to configured sites.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdhe/comparison-poster/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
