package release

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-runner/internal/changelog"
	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/runner"
	"github.com/shinji-kodama/release-runner/internal/vcs"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Version
		hasError bool
	}{
		{"1.2.3", "1.2.3", false},
		{"v1.2.3", "1.2.3", false},
		{"V10.0.1", "10.0.1", false},
		{" 0.1.0\n", "0.1.0", false},
		{"1.2", "", true},
		{"1.2.3-rc.1", "", true},
		{"01.2.3", "", true}, // leading zero
		{"latest", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.hasError {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

// TestDetermineVersion covers bump levels, explicit versions and the
// existing-tag check.
func TestDetermineVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("bump level resolved by changelog tool", func(t *testing.T) {
		rec := runner.NewRecorder().On("changie next patch", "1.2.4", nil)
		v, err := DetermineVersion(ctx, "Patch", changelog.New(rec), vcs.New(rec))
		require.NoError(t, err)
		assert.Equal(t, model.Version("1.2.4"), v)
		assert.Equal(t, []string{"changie next patch", "git tag --list v1.2.4"}, rec.Calls())
	})

	t.Run("changelog tool output with v prefix", func(t *testing.T) {
		rec := runner.NewRecorder().On("changie next major", "v2.0.0", nil)
		v, err := DetermineVersion(ctx, "major", changelog.New(rec), vcs.New(rec))
		require.NoError(t, err)
		assert.Equal(t, model.Version("2.0.0"), v)
	})

	t.Run("explicit version skips changelog tool", func(t *testing.T) {
		rec := runner.NewRecorder()
		v, err := DetermineVersion(ctx, "v3.1.4", changelog.New(rec), vcs.New(rec))
		require.NoError(t, err)
		assert.Equal(t, model.Version("3.1.4"), v)
		assert.False(t, rec.Called("changie next patch"))
	})

	t.Run("existing tag rejected", func(t *testing.T) {
		rec := runner.NewRecorder().On("git tag --list v1.2.3", "v1.2.3", nil)
		_, err := DetermineVersion(ctx, "1.2.3", changelog.New(rec), vcs.New(rec))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrTagExists)
	})

	t.Run("unparseable argument", func(t *testing.T) {
		rec := runner.NewRecorder()
		_, err := DetermineVersion(ctx, "next", changelog.New(rec), vcs.New(rec))
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrUsage)
		assert.Empty(t, rec.Calls(), "nothing is attempted for bad input")
	})

	t.Run("unusable changelog tool output is not a usage error", func(t *testing.T) {
		rec := runner.NewRecorder().On("changie next patch", "no unreleased changes", nil)
		_, err := DetermineVersion(ctx, "patch", changelog.New(rec), vcs.New(rec))
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrUsage)
		assert.Equal(t, model.ExitGeneralError, model.ExitCodeFor(err))
		assert.Contains(t, err.Error(), `"no unreleased changes"`)
	})

	t.Run("changelog tool failure", func(t *testing.T) {
		rec := runner.NewRecorder().On("changie next minor", "", errors.New("no changes"))
		_, err := DetermineVersion(ctx, "minor", changelog.New(rec), vcs.New(rec))
		assert.Error(t, err)
	})
}

func TestValidateArg(t *testing.T) {
	for _, arg := range []string{"major", "Minor", "patch", "1.2.3", "v0.4.0"} {
		assert.NoError(t, ValidateArg(arg), arg)
	}
	for _, arg := range []string{"not-a-version", "1.2", "v1.2.3-rc.1", ""} {
		err := ValidateArg(arg)
		assert.ErrorIs(t, err, model.ErrUsage, arg)
	}
}

func TestReleaseFiles(t *testing.T) {
	assert.Equal(t, []string{
		"Cargo.toml",
		"Cargo.lock",
		"changes/1.2.4.md",
		"CHANGELOG.md",
		"changes/unreleased",
	}, ReleaseFiles("1.2.4", "Cargo.toml"))
}
