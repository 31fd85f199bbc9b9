// Package cli implements the cobra-based command line for release-runner.
//
// The root command is the whole program: it takes one positional argument
// (a bump level or an explicit version), loads configuration, wires the
// release orchestrator and runs every step in order. This file defines the
// root command, its flags and the error-to-exit-code handling; release.go
// holds the wiring that runs when the command is invoked.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/release"
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// rootFlags holds the flag values of the root command.
// They are bound to cobra flags in NewRootCommand and read by runRelease.
type rootFlags struct {
	// configPath points at an explicit config file. When empty, the
	// package root is searched for .release.{yaml,yml,jsonc,json}.
	configPath string

	// branch and remote override where the release commit is pushed.
	branch string
	remote string

	// workflow overrides the display name of the CI workflow to wait on.
	workflow string

	// yes accepts the edited manifest without the y/N prompt. The
	// manifest is still shown in the pager.
	yes bool

	// verbose lowers the log level from info to debug.
	verbose bool

	// logFormat is "console" (human-readable) or "json".
	logFormat string

	// metricsFile, when set, receives the run's Prometheus metrics in
	// textfile-collector format when the command exits.
	metricsFile string
}

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		// Use is the one-line usage pattern shown in help output.
		Use:   "release-runner <major|minor|patch|[v]X.Y.Z>",
		Short: "Cut, verify and publish a crate release",
		Long: `release-runner drives a crate release from start to finish.

It bumps the version, edits Cargo.toml (after you review it), batches the
changelog, commits, pushes and waits for CI, tags and waits for the
release workflow, checks the published release, and finally runs
cargo publish. Any failure stops the run immediately.

Examples:
  release-runner patch
  release-runner minor --branch main
  release-runner v1.4.0 --yes --log-format json`,

		// Args validates the version argument before anything else runs:
		// no config is read, no token is required and no command is
		// executed for bad input. cobra.ExactArgs is not used because its
		// error would not carry the usage exit code, and because extra
		// arguments are tolerated (runRelease reports them as unused).
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: missing version argument (major, minor, patch, or X.Y.Z)", model.ErrUsage)
			}
			return release.ValidateArg(args[0])
		},

		// RunE is used instead of Run so errors reach Execute, which maps
		// them to exit codes.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},

		// SilenceUsage prevents cobra from printing usage on every error.
		// A failed release step is not a usage problem.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute prints them itself.
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// Where the configuration comes from and what it overrides.
	f := rootCmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Config file (default: .release.{yaml,yml,jsonc,json} in the package root)")
	f.StringVar(&flags.branch, "branch", "", "Mainline branch the release commit is pushed to")
	f.StringVar(&flags.remote, "remote", "", "Git remote to push to")
	f.StringVar(&flags.workflow, "workflow", "", "Name of the CI workflow to wait on")

	// Interaction.
	f.BoolVarP(&flags.yes, "yes", "y", false, "Accept the edited manifest without asking")

	// Diagnostics: logging goes to stderr, metrics to an optional file.
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	f.StringVar(&flags.logFormat, "log-format", "console", "Log format: console or json")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile on exit")

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit code; every other error is
// classified by model.ExitCodeFor from the sentinel it wraps.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	printError(os.Stderr, err)
	os.Exit(int(model.ExitCodeFor(err)))
}

// printError writes "Error: <message>" to w.
//
// Output of a failed subprocess is not repeated here: runner.Exec mirrors
// a command's stderr to the terminal while it runs, so the operator has
// already seen it directly above this line.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}
