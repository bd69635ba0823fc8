// Package main is the entry point for the classroom API server.
//
// main stays minimal: it builds the cobra command tree and runs it. Config
// loading, logging setup and server wiring happen in the subcommands and in
// internal/ packages.
//
//	classroom serve            start the HTTP API (also the default)
//	classroom migrate up       apply pending schema migrations
//	classroom migrate down     roll every migration back
//	classroom migrate version  print the current schema version
package main

import (
	"context"
	"os"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
