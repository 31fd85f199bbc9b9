package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-runner/internal/config"
	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/runner"
	"github.com/shinji-kodama/release-runner/internal/vcs"
)

// TestRootCommand_MissingArgument verifies a run without a version
// argument fails as a usage error before anything else happens.
func TestRootCommand_MissingArgument(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUsage)
	assert.Equal(t, model.ExitUsage, model.ExitCodeFor(err))
}

// TestRootCommand_InvalidArgument verifies a bad version argument is a
// usage error even when no token is set and the directory is not a crate:
// the argument is checked before configuration or credentials.
func TestRootCommand_InvalidArgument(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	chdir(t, t.TempDir())

	for _, arg := range []string{"not-a-version", "1.2", "v1.2.3-beta"} {
		t.Run(arg, func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetArgs([]string{arg})
			cmd.SetOut(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrUsage)
			assert.Equal(t, model.ExitUsage, model.ExitCodeFor(err))
		})
	}
}

// TestRunRelease_InvalidArgumentBeforeConfig runs the wiring directly in a
// crate with a config file but no token: the bad argument must win over
// the missing credential.
func TestRunRelease_InvalidArgumentBeforeConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"x\"\nversion = \"0.1.0\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".release.yaml"), []byte("owner: acme\nrepo: widget\n"), 0o644))
	t.Setenv("GITHUB_TOKEN", "")
	chdir(t, root)

	var out bytes.Buffer
	err := runRelease(context.Background(), &out, []string{"not-a-version"}, &rootFlags{})
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrUsage)
	assert.NotErrorIs(t, err, model.ErrMissingCredential)
	assert.Equal(t, model.ExitUsage, model.ExitCodeFor(err))
	assert.Empty(t, out.String())
}

func TestRootCommand_ValidArgumentsPassValidation(t *testing.T) {
	cmd := NewRootCommand()
	for _, args := range [][]string{{"patch"}, {"MAJOR"}, {"v2.0.0"}, {"1.0.1", "extra"}} {
		assert.NoError(t, cmd.Args(cmd, args), "%v", args)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "branch", "remote", "workflow", "yes", "verbose", "log-format", "metrics-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag --%s", name)
	}
}

// TestLoadConfig covers file discovery, flag overrides and owner/repo
// detection from the git remote.
func TestLoadConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults with repository from remote", func(t *testing.T) {
		root := t.TempDir()
		rec := runner.NewRecorder().On("git remote get-url origin", "git@github.com:acme/widget.git", nil)

		cfg, err := loadConfig(ctx, root, &rootFlags{}, vcs.New(rec))
		require.NoError(t, err)

		assert.Equal(t, "acme", cfg.Owner)
		assert.Equal(t, "widget", cfg.Repo)
		assert.Equal(t, "Publish", cfg.Workflow)
		assert.Equal(t, "master", cfg.Branch)
		assert.Equal(t, 15*time.Minute, cfg.Timing.CITimeout.D())
	})

	t.Run("discovered file and flag overrides", func(t *testing.T) {
		root := t.TempDir()
		yaml := "owner: acme\nrepo: gadget\nworkflow: CI\nbranch: trunk\ntiming:\n  ci_timeout: 20m\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, ".release.yaml"), []byte(yaml), 0o644))
		rec := runner.NewRecorder()

		cfg, err := loadConfig(ctx, root, &rootFlags{branch: "main", workflow: "Release"}, vcs.New(rec))
		require.NoError(t, err)

		assert.Equal(t, "gadget", cfg.Repo)
		assert.Equal(t, "main", cfg.Branch, "flag wins over file")
		assert.Equal(t, "Release", cfg.Workflow)
		assert.Equal(t, 20*time.Minute, cfg.Timing.CITimeout.D())
		assert.Empty(t, rec.Calls(), "remote is not consulted when owner and repo are set")
	})

	t.Run("explicit config path", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(t.TempDir(), "custom.jsonc")
		jsonc := `{
			// hosted elsewhere
			"owner": "acme",
			"repo": "thing",
			"remote": "upstream",
		}`
		require.NoError(t, os.WriteFile(path, []byte(jsonc), 0o644))

		cfg, err := loadConfig(ctx, root, &rootFlags{configPath: path}, vcs.New(runner.NewRecorder()))
		require.NoError(t, err)
		assert.Equal(t, "upstream", cfg.Remote)
	})

	t.Run("unknown remote", func(t *testing.T) {
		rec := runner.NewRecorder().On("git remote get-url origin", "", errors.New("no such remote"))

		_, err := loadConfig(ctx, t.TempDir(), &rootFlags{}, vcs.New(rec))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConfig)
	})

	t.Run("invalid timing", func(t *testing.T) {
		root := t.TempDir()
		yaml := "owner: acme\nrepo: gadget\ntiming:\n  resolve_attempts: 0\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, ".release.yml"), []byte(yaml), 0o644))

		_, err := loadConfig(ctx, root, &rootFlags{}, vcs.New(runner.NewRecorder()))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConfig)
	})
}

func TestClientTiming(t *testing.T) {
	got := clientTiming(config.Default().Timing)

	assert.Equal(t, 15*time.Minute, got.CITimeout)
	assert.Equal(t, 4*time.Minute, got.MinBuildTime)
	assert.Equal(t, 10*time.Second, got.PollInterval)
	assert.Equal(t, 10*time.Second, got.SettleDelay)
	assert.Equal(t, 4, got.ResolveAttempts)
	assert.Equal(t, time.Second, got.BackoffInitial)
	assert.Equal(t, 2.0, got.BackoffMultiplier)
	assert.Equal(t, 500*time.Millisecond, got.HoldTick)
}

func TestPrintError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		printError(&buf, model.ErrUserRejected)
		assert.Equal(t, "Error: rejected by user\n", buf.String())
	})

	t.Run("subprocess stderr is not repeated", func(t *testing.T) {
		var buf bytes.Buffer
		err := fmt.Errorf("publish package: %w", &runner.CommandError{
			Name:   "cargo",
			Args:   []string{"publish"},
			Stderr: "error: crate already uploaded",
			Err:    errors.New("exit status 101"),
		})
		printError(&buf, err)

		assert.Equal(t, "Error: publish package: cargo publish failed: exit status 101\n", buf.String())
		assert.NotContains(t, buf.String(), "already uploaded")
	})
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
