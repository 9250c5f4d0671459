// Package main is the entry point for buildident.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mitsuqtt/buildident/internal/bootstrap"
	"github.com/mitsuqtt/buildident/internal/buildinfo"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	if err := bootstrap.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
