package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the release error taxonomy. Library packages wrap
// these with fmt.Errorf("...: %w", ...) so callers can classify failures
// with errors.Is without depending on message text.
var (
	// ErrUsage indicates bad or missing command-line input.
	ErrUsage = errors.New("usage error")

	// ErrConfig indicates an invalid configuration file or value.
	ErrConfig = errors.New("configuration error")

	// ErrMissingCredential indicates the API bearer token is not set.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrPreconditionViolation indicates a release step was invoked out of
	// order. This is a bug in the orchestration sequence, never an
	// external condition.
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrWorkflowNotConfigured indicates no remote workflow matched the
	// configured name.
	ErrWorkflowNotConfigured = errors.New("workflow not configured")

	// ErrRunNotFound indicates no remote run matched after the retry
	// budget was exhausted.
	ErrRunNotFound = errors.New("workflow run not found")

	// ErrTimeout indicates a remote run did not complete in time.
	ErrTimeout = errors.New("timed out waiting for workflow run")

	// ErrRunFailed indicates a remote run completed with a non-success
	// conclusion.
	ErrRunFailed = errors.New("workflow run failed")

	// ErrReleaseMismatch indicates the latest published release does not
	// carry the expected tag.
	ErrReleaseMismatch = errors.New("latest release does not match tag")

	// ErrTagExists indicates a tag for the target version already exists.
	ErrTagExists = errors.New("tag already exists")

	// ErrSubprocess indicates an external command exited non-zero.
	ErrSubprocess = errors.New("command failed")

	// ErrUserRejected indicates the operator answered "no" to a
	// confirmation prompt.
	ErrUserRejected = errors.New("rejected by user")
)

// ExitCode defines the CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine why a release stopped.
type ExitCode int

const (
	// ExitSuccess indicates every release step completed.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unclassified error.
	ExitGeneralError ExitCode = 1

	// ExitUsage indicates bad command-line input; nothing was attempted.
	ExitUsage ExitCode = 2

	// ExitConfig indicates an invalid configuration or missing credential.
	ExitConfig ExitCode = 3

	// ExitPrecondition indicates a step was invoked out of order.
	ExitPrecondition ExitCode = 4

	// ExitRemoteLookup indicates a workflow or run could not be found.
	ExitRemoteLookup ExitCode = 5

	// ExitRemoteWait indicates a remote run timed out, failed, or the
	// published release did not match.
	ExitRemoteWait ExitCode = 6

	// ExitSubprocess indicates an external command failed.
	ExitSubprocess ExitCode = 7

	// ExitUserRejected indicates the operator aborted at a prompt.
	ExitUserRejected ExitCode = 8
)

// ExitCodeFor classifies err into an ExitCode. A *CLIError keeps its own
// code; otherwise the first matching sentinel in the chain decides.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	// An explicit CLIError anywhere in the chain wins. errors.As is used
	// rather than a type assertion because release steps wrap their
	// errors with the step name.
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	// The order of the cases matters only for errors that wrap more than
	// one sentinel; usage problems are reported first since nothing was
	// attempted for them.

	switch {
	case errors.Is(err, ErrUsage), errors.Is(err, ErrTagExists):
		return ExitUsage
	case errors.Is(err, ErrConfig), errors.Is(err, ErrMissingCredential):
		return ExitConfig
	case errors.Is(err, ErrPreconditionViolation):
		return ExitPrecondition
	case errors.Is(err, ErrWorkflowNotConfigured), errors.Is(err, ErrRunNotFound):
		return ExitRemoteLookup
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrRunFailed), errors.Is(err, ErrReleaseMismatch):
		return ExitRemoteWait
	case errors.Is(err, ErrSubprocess):
		return ExitSubprocess
	case errors.Is(err, ErrUserRejected):
		return ExitUserRejected
	default:
		return ExitGeneralError
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
