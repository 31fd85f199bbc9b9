// Package changelog drives the changie changelog tool: resolving the next
// version for a bump level, batching unreleased fragments into a version
// file, and merging version files into CHANGELOG.md.
package changelog

import (
	"context"
	"strings"

	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/runner"
)

// Command is the changie binary name.
const Command = "changie"

// Changie runs changie subcommands through a runner.Runner.
type Changie struct {
	run runner.Runner
}

// New creates a Changie bound to r.
func New(r runner.Runner) *Changie {
	return &Changie{run: r}
}

// Next returns the version changie would release for level.
func (c *Changie) Next(ctx context.Context, level model.BumpLevel) (string, error) {
	out, err := c.run.Run(ctx, Command, "next", level.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Batch collects unreleased change fragments into changes/<version>.md.
func (c *Changie) Batch(ctx context.Context, version model.Version) error {
	_, err := c.run.Run(ctx, Command, "batch", version.String())
	return err
}

// Merge regenerates CHANGELOG.md from the version files.
func (c *Changie) Merge(ctx context.Context) error {
	_, err := c.run.Run(ctx, Command, "merge")
	return err
}
