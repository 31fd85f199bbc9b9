// Package logging builds the zerolog logger used by release-runner.
//
// Logs always go to stderr so that stdout stays reserved for the final
// result line. Each run is tagged with a run_id so concatenated logs of
// several attempts can be told apart.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Verbose lowers the level from info to debug.
	Verbose bool

	// Format is "console" (default) or "json".
	Format string

	// Out defaults to os.Stderr.
	Out io.Writer
}

// New creates the root logger for one run and returns it along with the
// generated run id.
func New(opts Options) (zerolog.Logger, string) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer = out
	if opts.Format != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	runID := uuid.NewString()
	log := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return log, runID
}

// Component returns a child logger tagged with component.
func Component(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
