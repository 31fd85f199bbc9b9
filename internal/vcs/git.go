package vcs

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shinji-kodama/release-runner/internal/runner"
)

// Git wraps the git CLI through a runner.Runner.
type Git struct {
	run runner.Runner
}

// New creates a Git bound to r. The runner's working directory decides
// which repository is operated on.
func New(r runner.Runner) *Git {
	return &Git{run: r}
}

// Add stages the given paths.
func (g *Git) Add(ctx context.Context, paths ...string) error {
	_, err := g.run.Run(ctx, "git", append([]string{"add"}, paths...)...)
	return err
}

// Commit records a commit with the given message.
func (g *Git) Commit(ctx context.Context, message string) error {
	_, err := g.run.Run(ctx, "git", "commit", "-m", message)
	return err
}

// HeadCommit returns the full hash of HEAD.
//
// Uses `git rev-parse --verify HEAD`, which fails instead of echoing the
// argument back when HEAD does not resolve.
func (g *Git) HeadCommit(ctx context.Context) (string, error) {
	out, err := g.run.Run(ctx, "git", "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes ref to remote.
func (g *Git) Push(ctx context.Context, remote, ref string) error {
	_, err := g.run.Run(ctx, "git", "push", remote, ref)
	return err
}

// Tag creates an annotated tag named name with the given message.
func (g *Git) Tag(ctx context.Context, name, message string) error {
	_, err := g.run.Run(ctx, "git", "tag", "-am", message, name)
	return err
}

// TagExists reports whether a local tag with exactly this name exists.
//
// `git tag --list <name>` treats the argument as a pattern, so the output
// is compared line by line rather than just checked for emptiness.
func (g *Git) TagExists(ctx context.Context, name string) (bool, error) {
	out, err := g.run.Run(ctx, "git", "tag", "--list", name)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// RemoteURL returns the fetch URL configured for remote.
func (g *Git) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := g.run.Run(ctx, "git", "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// remotePattern matches the owner/repo pair at the end of https, ssh and
// scp-style remote URLs:
//
//	https://github.com/owner/repo.git
//	ssh://git@github.com/owner/repo
//	git@github.com:owner/repo.git
var remotePattern = regexp.MustCompile(`[/:]([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemote extracts the owner and repository name from a remote URL.
func ParseRemote(url string) (owner, repo string, err error) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", "", fmt.Errorf("cannot determine owner/repo from remote URL %q", url)
	}
	return m[1], m[2], nil
}
