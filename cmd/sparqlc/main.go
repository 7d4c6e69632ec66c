// Package main is the entry point for the sparqlc CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/sparqlc/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
