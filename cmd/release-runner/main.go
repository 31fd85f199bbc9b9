// Package main is the entry point for the release-runner CLI.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development they default to "dev", "none" and "unknown".
package main

import (
	"github.com/shinji-kodama/release-runner/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
