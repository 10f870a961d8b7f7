// Command movieload cleans the movie catalog CSV extracts, links reviews and
// awards to movies by title and loads the result into the relational and
// document sinks.
//
// Usage:
//
//	movieload validate [data-dir]   check configuration and input files
//	movieload clean [data-dir]      clean, reconcile and prepare; touch no sink
//	movieload load [data-dir]       full run
//
// Configuration comes from the environment, optionally seeded from a .env
// file (see internal/config). The exit status is 0 only on success.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "movieload:", err)
		os.Exit(1)
	}
}
