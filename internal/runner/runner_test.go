package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-runner/internal/model"
)

// requireShell skips tests that need a POSIX shell.
func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// TestExec_CapturesTrimmedStdout verifies that stdout is returned with
// surrounding whitespace removed, matching how callers consume hashes
// and version strings.
func TestExec_CapturesTrimmedStdout(t *testing.T) {
	requireShell(t)
	r := NewExec(t.TempDir(), zerolog.Nop())

	out, err := r.Run(context.Background(), "sh", "-c", "echo '  1.2.4  '")
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", out)
}

// TestExec_FailureCarriesStderr verifies that a non-zero exit produces a
// CommandError that includes stderr and classifies as a subprocess error.
func TestExec_FailureCarriesStderr(t *testing.T) {
	requireShell(t)
	r := NewExec(t.TempDir(), zerolog.Nop())

	_, err := r.Run(context.Background(), "sh", "-c", "echo 'fatal: no remote' >&2; exit 3")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "fatal: no remote", cmdErr.Stderr)
	assert.ErrorIs(t, err, model.ErrSubprocess)
	assert.Equal(t, model.ExitSubprocess, model.ExitCodeFor(err))

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

// TestCommandError_Error verifies the message names the command and the
// exit error but never repeats stderr, which was already mirrored live.
func TestCommandError_Error(t *testing.T) {
	err := &CommandError{Name: "git", Args: []string{"push", "origin", "master"}, Stderr: "rejected"}
	assert.Equal(t, "git push origin master failed", err.Error())

	err = &CommandError{Name: "cargo", Args: []string{"publish"}, Err: errors.New("exit status 101")}
	assert.Equal(t, "cargo publish failed: exit status 101", err.Error())

	err = &CommandError{Name: "cargo", Args: []string{"publish"}, Stderr: "error: crate already uploaded", Err: errors.New("exit status 101")}
	assert.Equal(t, "cargo publish failed: exit status 101", err.Error())
	assert.NotContains(t, err.Error(), "already uploaded")
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder().On("changie next patch", "1.2.4", nil)

	out, err := rec.Run(context.Background(), "changie", "next", "patch")
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", out)

	out, err = rec.Run(context.Background(), "git", "status")
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Equal(t, []string{"changie next patch", "git status"}, rec.Calls())
	assert.True(t, rec.Called("git status"))
	assert.False(t, rec.Called("git push"))
}
