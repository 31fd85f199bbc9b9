package release

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/shinji-kodama/release-runner/internal/model"
)

// explicitVersion accepts plain X.Y.Z with an optional leading "v".
// Pre-release and build metadata are not release targets.
var explicitVersion = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)

// ParseVersion normalizes a "[v]X.Y.Z" literal into a Version.
func ParseVersion(s string) (model.Version, error) {
	m := explicitVersion.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return "", fmt.Errorf("%w: invalid version %q: use major, minor, patch, or X.Y.Z", model.ErrUsage, s)
	}

	// StrictNewVersion rejects leading zeros ("01.2.3").
	v, err := semver.StrictNewVersion(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: invalid version %q: %v", model.ErrUsage, s, err)
	}
	return model.Version(v.String()), nil
}

// ValidateArg checks the command-line argument without running anything:
// it must be a bump level or an explicit [v]X.Y.Z version.
func ValidateArg(arg string) error {
	if _, err := model.ParseBumpLevel(arg); err == nil {
		return nil
	}
	_, err := ParseVersion(arg)
	return err
}

// nextVersioner resolves a bump level to a concrete version string.
type nextVersioner interface {
	Next(ctx context.Context, level model.BumpLevel) (string, error)
}

// tagLookup reports whether a tag already exists.
type tagLookup interface {
	TagExists(ctx context.Context, name string) (bool, error)
}

// DetermineVersion turns the command-line argument into the target
// Version. A bump level is resolved by the changelog tool; anything else
// must be an explicit version. A version whose tag already exists is
// rejected, since releasing it again would move nothing forward.
func DetermineVersion(ctx context.Context, arg string, next nextVersioner, tags tagLookup) (model.Version, error) {
	var version model.Version

	if level, err := model.ParseBumpLevel(arg); err == nil {
		raw, err := next.Next(ctx, level)
		if err != nil {
			return "", fmt.Errorf("resolve %s version: %w", level, err)
		}
		// Bad output here is the tool's fault, not the operator's, so it
		// is not reported as a usage error.
		version, err = ParseVersion(raw)
		if err != nil {
			return "", fmt.Errorf("changelog tool returned unusable %s version %q", level, strings.TrimSpace(raw))
		}
	} else {
		version, err = ParseVersion(arg)
		if err != nil {
			return "", err
		}
	}

	exists, err := tags.TagExists(ctx, version.Tag())
	if err != nil {
		return "", fmt.Errorf("check tag %s: %w", version.Tag(), err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", model.ErrTagExists, version.Tag())
	}
	return version, nil
}

// ReleaseFiles lists the paths staged in the release commit, relative to
// the package root.
func ReleaseFiles(version model.Version, manifestName string) []string {
	lock := strings.TrimSuffix(manifestName, ".toml") + ".lock"
	return []string{
		manifestName,
		lock,
		"changes/" + version.String() + ".md",
		"CHANGELOG.md",
		"changes/unreleased",
	}
}
