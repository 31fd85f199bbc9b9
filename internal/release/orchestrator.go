package release

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/changelog"
	"github.com/shinji-kodama/release-runner/internal/logging"
	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/prompt"
	"github.com/shinji-kodama/release-runner/internal/runner"
	"github.com/shinji-kodama/release-runner/internal/vcs"
)

// Remote waits on the hosting service's CI for the release.
type Remote interface {
	WaitForCommitBuild(ctx context.Context, commit string) error
	WaitForTagRelease(ctx context.Context, tag string) error
	FetchLatestRelease(ctx context.Context) (*model.Release, error)
}

// Manifest edits the version field of the package manifest.
type Manifest interface {
	Path() string
	SetVersion(version model.Version) error
	Restore() error
	Discard() error
}

// Reviewer shows a file to the operator. Failures are its own business.
type Reviewer interface {
	Show(ctx context.Context, path string)
}

// Options wires an Orchestrator.
type Options struct {
	// VersionArg is the raw positional argument (bump level or version).
	VersionArg string

	// Run executes git, changie and cargo in the package root.
	Run runner.Runner

	Remote   Remote
	Manifest Manifest
	Reviewer Reviewer
	Confirm  prompt.Confirmer

	// PushRemote and Branch are where the release commit goes.
	PushRemote string
	Branch     string

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Orchestrator runs one release. It is not safe for concurrent use and
// not reusable: create one per invocation.
type Orchestrator struct {
	versionArg string
	run        runner.Runner
	git        *vcs.Git
	changie    *changelog.Changie
	remote     Remote
	manifest   Manifest
	reviewer   Reviewer
	confirm    prompt.Confirmer
	pushRemote string
	branch     string
	log        zerolog.Logger
	metrics    *metrics.Metrics

	stage   model.Stage
	version model.Version
	commit  string
}

// New creates an Orchestrator in StageInitial.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		versionArg: opts.VersionArg,
		run:        opts.Run,
		git:        vcs.New(opts.Run),
		changie:    changelog.New(opts.Run),
		remote:     opts.Remote,
		manifest:   opts.Manifest,
		reviewer:   opts.Reviewer,
		confirm:    opts.Confirm,
		pushRemote: opts.PushRemote,
		branch:     opts.Branch,
		log:        logging.Component(opts.Log, "release"),
		metrics:    opts.Metrics,
		stage:      model.StageInitial,
	}
}

// Stage returns the stage the run has reached.
func (o *Orchestrator) Stage() model.Stage {
	return o.stage
}

// Step names, in execution order.
const (
	StepBumpVersion     = "bump version"
	StepEditManifest    = "edit manifest"
	StepUpdateChangelog = "update changelog"
	StepCommit          = "commit"
	StepPush            = "push & await CI"
	StepTag             = "tag & await release"
	StepPublish         = "publish package"
)

// Run executes every step in order and stops at the first error.
// On success the run is in StagePublished.
func (o *Orchestrator) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepBumpVersion, o.BumpVersion},
		{StepEditManifest, o.EditManifest},
		{StepUpdateChangelog, o.UpdateChangelog},
		{StepCommit, o.Commit},
		{StepPush, o.PushAndAwaitCI},
		{StepTag, o.TagAndAwaitRelease},
		{StepPublish, o.Publish},
	}

	for _, s := range steps {
		if err := o.step(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// step runs fn with progress logging and duration metrics.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	o.log.Info().Str("stage", o.stage.String()).Msgf("%s...", name)
	start := time.Now()

	err := fn(ctx)
	o.metrics.ObserveStep(name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	o.log.Info().Str("stage", o.stage.String()).Msgf("%s: complete", name)
	return nil
}

// Version returns the target version, determining it on first use.
func (o *Orchestrator) Version(ctx context.Context) (model.Version, error) {
	if o.version != "" {
		return o.version, nil
	}
	v, err := DetermineVersion(ctx, o.versionArg, o.changie, o.git)
	if err != nil {
		return "", err
	}
	o.version = v
	return v, nil
}

// BumpVersion computes and validates the target version.
func (o *Orchestrator) BumpVersion(ctx context.Context) error {
	v, err := o.Version(ctx)
	if err != nil {
		return err
	}
	o.log.Info().Str("version", v.String()).Msg("target version")
	return nil
}

// EditManifest writes the version into the manifest, shows it for review,
// and regenerates the lock file once the operator accepts it. A rejected
// edit is rolled back from the backup.
func (o *Orchestrator) EditManifest(ctx context.Context) error {
	if err := o.require(StepEditManifest, model.StageInitial); err != nil {
		return err
	}
	v, err := o.Version(ctx)
	if err != nil {
		return err
	}

	if err := o.manifest.SetVersion(v); err != nil {
		return err
	}

	if o.reviewer != nil {
		o.reviewer.Show(ctx, o.manifest.Path())
	}

	ok, err := o.confirm.Confirm(fmt.Sprintf("Does this %s file look right to you?", manifestName(o.manifest)))
	if err != nil || !ok {
		if restoreErr := o.manifest.Restore(); restoreErr != nil {
			o.log.Error().Err(restoreErr).Msg("could not restore manifest backup")
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s edits", model.ErrUserRejected, manifestName(o.manifest))
	}

	if err := o.manifest.Discard(); err != nil {
		return err
	}
	_, err = o.run.Run(ctx, "cargo", "generate-lockfile")
	return err
}

// UpdateChangelog batches unreleased changes into the version and merges
// the changelog.
func (o *Orchestrator) UpdateChangelog(ctx context.Context) error {
	if err := o.require(StepUpdateChangelog, model.StageInitial); err != nil {
		return err
	}
	v, err := o.Version(ctx)
	if err != nil {
		return err
	}

	if err := o.changie.Batch(ctx, v); err != nil {
		return err
	}
	return o.changie.Merge(ctx)
}

// Commit stages the release files and commits them.
func (o *Orchestrator) Commit(ctx context.Context) error {
	if err := o.require(StepCommit, model.StageInitial); err != nil {
		return err
	}
	v, err := o.Version(ctx)
	if err != nil {
		return err
	}

	if err := o.git.Add(ctx, ReleaseFiles(v, manifestName(o.manifest))...); err != nil {
		return err
	}
	if err := o.git.Commit(ctx, "Release "+v.Tag()); err != nil {
		return err
	}

	o.advance(model.StageCommitted)
	return nil
}

// CommitHash returns the hash of the release commit. Reading it before
// the commit exists is a precondition violation.
func (o *Orchestrator) CommitHash(ctx context.Context) (string, error) {
	if o.stage < model.StageCommitted {
		return "", fmt.Errorf("%w: commit hash read before committing", model.ErrPreconditionViolation)
	}
	if o.commit != "" {
		return o.commit, nil
	}

	hash, err := o.git.HeadCommit(ctx)
	if err != nil {
		return "", err
	}
	o.commit = hash
	return hash, nil
}

// PushAndAwaitCI pushes the release commit to the mainline branch and
// waits for its CI build to succeed.
func (o *Orchestrator) PushAndAwaitCI(ctx context.Context) error {
	if err := o.require(StepPush, model.StageCommitted); err != nil {
		return err
	}
	hash, err := o.CommitHash(ctx)
	if err != nil {
		return err
	}

	if err := o.git.Push(ctx, o.pushRemote, o.branch); err != nil {
		return err
	}
	if err := o.remote.WaitForCommitBuild(ctx, hash); err != nil {
		return err
	}

	o.advance(model.StagePushed)
	return nil
}

// TagAndAwaitRelease creates and pushes the annotated release tag, waits
// for the release workflow, and checks the latest published release is
// the one just tagged.
func (o *Orchestrator) TagAndAwaitRelease(ctx context.Context) error {
	if err := o.require(StepTag, model.StagePushed); err != nil {
		return err
	}
	v, err := o.Version(ctx)
	if err != nil {
		return err
	}
	tag := v.Tag()

	if err := o.git.Tag(ctx, tag, "Release "+tag); err != nil {
		return err
	}
	if err := o.git.Push(ctx, o.pushRemote, tag); err != nil {
		return err
	}
	if err := o.remote.WaitForTagRelease(ctx, tag); err != nil {
		return err
	}

	rel, err := o.remote.FetchLatestRelease(ctx)
	if err != nil {
		return err
	}
	if rel.TagName != tag {
		return fmt.Errorf("%w: expected %s, found %s", model.ErrReleaseMismatch, tag, rel.TagName)
	}

	o.advance(model.StageReleased)
	return nil
}

// Publish publishes the package to the registry.
func (o *Orchestrator) Publish(ctx context.Context) error {
	if err := o.require(StepPublish, model.StageReleased); err != nil {
		return err
	}
	if _, err := o.run.Run(ctx, "cargo", "publish"); err != nil {
		return err
	}

	o.advance(model.StagePublished)
	return nil
}

// require fails unless the run is exactly in stage want.
func (o *Orchestrator) require(step string, want model.Stage) error {
	if o.stage != want {
		return fmt.Errorf("%w: %s must be issued from stage %s, run is %s",
			model.ErrPreconditionViolation, step, want, o.stage)
	}
	return nil
}

// advance moves the run to the next stage. Stages only move forward by
// one; anything else is a bug in this package.
func (o *Orchestrator) advance(to model.Stage) {
	if to != o.stage+1 {
		panic(fmt.Sprintf("release: illegal transition %s → %s", o.stage, to))
	}
	o.stage = to
	o.metrics.SetStage(int(to))
}

func manifestName(m Manifest) string {
	if m == nil {
		return "Cargo.toml"
	}
	return filepath.Base(m.Path())
}
