// Package github waits on GitHub Actions workflow runs on behalf of a
// release.
//
// It is layered, leaves first:
//
//   - API / REST: the four read-only REST calls a release needs (list
//     workflows, list runs of a workflow, get one run, latest release).
//   - Resolver: finds the run triggered by a commit or tag, retrying
//     with exponential backoff while the hosting service catches up.
//   - Poller: waits for a resolved run to complete within an overall
//     timeout and classifies its conclusion.
//   - Client: composes the above into WaitForCommitBuild and
//     WaitForTagRelease, memoizing the workflow id for the run.
//
// Everything is synchronous. Sleeps go through hold.Clock so tests run
// instantly and can assert on the exact backoff sequence.
package github
