// Package model defines the domain types and value objects for the
// release-runner CLI.
//
// This package contains pure data structures with no external dependencies.
// Remote entities (RemoteRun, Workflow, Release) are read-only snapshots
// decoded from the hosting API; they are never cached beyond the call that
// produced them.
//
// The package also defines exit codes (ExitCode), the sentinel errors of
// the release error taxonomy, and a custom error type (CLIError) that
// carries an exit code for proper OS process exit handling.
package model
