// Package vcs provides the Git operations a release needs: staging and
// committing the release files, pushing the mainline branch, creating and
// pushing the annotated release tag, and reading back the commit hash.
//
// All Git operations go through runner.Runner, so they shell out to the
// git binary in production and are recorded by a fake in tests. This uses
// the exact same Git behavior (credentials, hooks, signing config) the
// maintainer gets in their terminal.
package vcs
