package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/logging"
	"github.com/shinji-kodama/release-runner/internal/model"
)

// Runner runs one external command and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// CommandError describes an external command that exited non-zero.
// It wraps model.ErrSubprocess so the CLI can map it to an exit code.
type CommandError struct {
	// Name and Args are the argv that was executed.
	Name string
	Args []string

	// Stderr holds the command's diagnostic output, trimmed. It is kept
	// for logging; the terminal has already seen it.
	Stderr string

	// Err is the error from exec (usually *exec.ExitError).
	Err error
}

// Error formats as "<name> <args> failed: <exec error>". Stderr is left
// out: Exec has already mirrored it to the terminal as it was written.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed", strings.TrimSpace(e.Name+" "+strings.Join(e.Args, " ")))
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the subprocess sentinel and the exec error.
func (e *CommandError) Unwrap() []error {
	return []error{model.ErrSubprocess, e.Err}
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Dir is the working directory for every command. Empty means the
	// process working directory.
	Dir string

	// Interactive commands (the pager) inherit the terminal instead of
	// having their output captured.
	Interactive map[string]bool

	// Log receives one line per invocation.
	Log zerolog.Logger
}

// NewExec creates an Exec runner rooted at dir.
func NewExec(dir string, log zerolog.Logger) *Exec {
	return &Exec{
		Dir:         dir,
		Interactive: map[string]bool{},
		Log:         logging.Component(log, "runner"),
	}
}

// Run executes name with args in r.Dir.
//
// Stdout is captured and returned trimmed. Stderr is captured for the
// error message and also mirrored to the process stderr so long-running
// tools (cargo publish) still show progress.
func (r *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.Log.Info().Strs("args", args).Msgf("running %s", name)

	// #nosec G204: command names are fixed by the release sequence
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	if r.Interactive[name] {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", &CommandError{Name: name, Args: args, Err: err}
		}
		return "", nil
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Name:   name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		r.Log.Debug().Err(err).Str("stderr", cmdErr.Stderr).Msgf("%s failed", name)
		return "", cmdErr
	}

	return strings.TrimSpace(stdout.String()), nil
}
