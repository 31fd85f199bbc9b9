// Package release implements the release state machine: the strictly
// ordered sequence of steps that turns a bump argument into a published
// package.
//
//	bump version → edit manifest → update changelog → commit
//	  → push & await CI → tag & await release → publish package
//
// The run moves through model.Stage values Initial → Committed → Pushed →
// Released → Published. Every gated step checks the stage it must be
// issued from and fails with model.ErrPreconditionViolation otherwise,
// before any side effect. There is no retry across steps and no rollback:
// after a push or tag push a fresh invocation is a new attempt.
//
// All external effects go through injected collaborators (runner.Runner,
// Remote, Manifest, prompt.Confirmer) so the sequence can be exercised
// without spawning processes or touching the network.
package release
