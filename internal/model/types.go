package model

import (
	"fmt"
	"strings"
)

// BumpLevel is one of the literal bump levels accepted on the command line.
// A bump level is resolved into a concrete Version by the changelog tool.
type BumpLevel string

const (
	// BumpMajor increments the major component (1.2.3 → 2.0.0).
	BumpMajor BumpLevel = "major"

	// BumpMinor increments the minor component (1.2.3 → 1.3.0).
	BumpMinor BumpLevel = "minor"

	// BumpPatch increments the patch component (1.2.3 → 1.2.4).
	BumpPatch BumpLevel = "patch"
)

// String returns the string representation of BumpLevel.
func (b BumpLevel) String() string {
	return string(b)
}

// IsValid checks whether the BumpLevel value is one of the
// predefined levels.
func (b BumpLevel) IsValid() bool {
	switch b {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// ParseBumpLevel converts a string to a BumpLevel.
// Input is trimmed and lower-cased before matching.
func ParseBumpLevel(s string) (BumpLevel, error) {
	level := BumpLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", fmt.Errorf("invalid bump level: %q (valid: major, minor, patch)", s)
	}
	return level, nil
}

// Version is a normalized semantic version without a "v" prefix
// (e.g., "1.2.4"). It is computed once per run and never changes.
type Version string

// String returns the bare version string.
func (v Version) String() string {
	return string(v)
}

// Tag returns the version-control tag name for this version ("v1.2.4").
func (v Version) Tag() string {
	return "v" + string(v)
}

// Stage is the position of a release run in the release state machine.
// The only legal transitions are:
//
//	Initial → Committed → Pushed → Released → Published
//
// A stage never moves backwards within a run.
type Stage int

const (
	// StageInitial is the starting stage: nothing irreversible has happened.
	StageInitial Stage = iota

	// StageCommitted means the release commit exists locally.
	StageCommitted

	// StagePushed means the commit was pushed and its CI build succeeded.
	StagePushed

	// StageReleased means the tag was pushed, the release workflow
	// succeeded and the latest published release matches the tag.
	StageReleased

	// StagePublished means the package was published. Terminal.
	StagePublished
)

// String returns a lower-case name of the stage for logs and errors.
func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageCommitted:
		return "committed"
	case StagePushed:
		return "pushed"
	case StageReleased:
		return "released"
	case StagePublished:
		return "published"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Remote run status and conclusion values as reported by the hosting API.
// Only RunStatusCompleted and ConclusionSuccess drive behaviour; the other
// statuses are logged as-is while polling.
const (
	// RunStatusQueued means the run is waiting for a runner.
	RunStatusQueued = "queued"

	// RunStatusInProgress means the run has started.
	RunStatusInProgress = "in_progress"

	// RunStatusCompleted is terminal; Conclusion is set from here on.
	RunStatusCompleted = "completed"

	// ConclusionSuccess is the only conclusion that lets a release go on.
	ConclusionSuccess = "success"
)

// Workflow is a named remote workflow definition.
// Workflows are looked up by Name; the ID is what run listings are keyed on.
type Workflow struct {
	// ID is the numeric workflow identifier.
	ID int64 `json:"id"`

	// Name is the display name (e.g., "Publish"), matched exactly.
	Name string `json:"name"`

	// Path is the workflow file in the repository, for logs only.
	Path string `json:"path,omitempty"`
}

// RemoteRun identifies one executed instance of a remote workflow.
//
// Conclusion is only populated once Status is "completed". When several
// runs match the same predicate, the one with the highest RunNumber is
// authoritative (a re-triggered build supersedes the earlier one).
type RemoteRun struct {
	// ID is the opaque numeric identifier used to fetch the run.
	ID int64 `json:"id"`

	// RunNumber is the per-workflow sequence number.
	RunNumber int `json:"run_number"`

	// Status is queued, in_progress or completed.
	Status string `json:"status"`

	// Conclusion is success, failure, cancelled, ... once completed.
	Conclusion string `json:"conclusion"`

	// HeadSHA is the commit the run was triggered for.
	HeadSHA string `json:"head_sha"`

	// HeadBranch is the branch or tag name the run was triggered for.
	HeadBranch string `json:"head_branch"`

	// HTMLURL points at the run in the web UI.
	HTMLURL string `json:"html_url,omitempty"`
}

// IsCompleted reports whether the run has reached a terminal state.
func (r *RemoteRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// Release is the remote record of a published release.
type Release struct {
	// TagName is compared against the tag the run just pushed.
	TagName string `json:"tag_name"`

	// Name is the release title.
	Name string `json:"name"`

	// HTMLURL points at the release page.
	HTMLURL string `json:"html_url,omitempty"`
}

// PollOutcome is the terminal result of waiting on a RemoteRun.
// A zero Conclusion never occurs for a completed run.
type PollOutcome struct {
	// RunID is the run that was waited on.
	RunID int64

	// Conclusion is the run's final conclusion (success, failure, ...).
	Conclusion string
}

// Succeeded reports whether the run concluded with "success".
func (o PollOutcome) Succeeded() bool {
	return o.Conclusion == ConclusionSuccess
}

// Err returns nil for a successful outcome and an ErrRunFailed-wrapping
// error carrying the observed conclusion otherwise.
func (o PollOutcome) Err() error {
	if o.Succeeded() {
		return nil
	}
	return fmt.Errorf("%w: run %d concluded with %q", ErrRunFailed, o.RunID, o.Conclusion)
}
