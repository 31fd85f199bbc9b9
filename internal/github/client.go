package github

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/hold"
	"github.com/shinji-kodama/release-runner/internal/logging"
	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
)

// Timing holds the waits and budgets of the remote workflow client.
type Timing struct {
	CITimeout         time.Duration
	MinBuildTime      time.Duration
	PollInterval      time.Duration
	SettleDelay       time.Duration
	ResolveAttempts   int
	BackoffInitial    time.Duration
	BackoffMultiplier float64
	HoldTick          time.Duration
}

// Options configures NewClient. Zero values fall back to the real clock,
// stderr-less holds, a disabled logger and disabled metrics.
type Options struct {
	Workflow string
	Timing   Timing
	Clock    hold.Clock
	Status   io.Writer
	Log      zerolog.Logger
	Metrics  *metrics.Metrics
}

// Client waits for the CI runs a release depends on.
//
// The workflow id is looked up by name on first use and then reused for
// the rest of the run; it is never invalidated. The minimum build time is
// held only before the first commit-triggered wait.
type Client struct {
	api      API
	workflow string
	holder   *hold.Holder
	minBuild time.Duration
	resolver *Resolver
	poller   *Poller
	log      zerolog.Logger

	workflowID *int64
	floorHeld  bool
}

// NewClient composes a Resolver and a Poller over api.
func NewClient(api API, opts Options) *Client {
	clock := opts.Clock
	if clock == nil {
		clock = hold.RealClock{}
	}
	holder := hold.New(opts.Status, clock, opts.Timing.HoldTick)
	log := opts.Log

	return &Client{
		api:      api,
		workflow: opts.Workflow,
		holder:   holder,
		minBuild: opts.Timing.MinBuildTime,
		log:      logging.Component(log, "workflow"),
		resolver: &Resolver{
			API:        api,
			Holder:     holder,
			Clock:      clock,
			Log:        logging.Component(log, "resolver"),
			Metrics:    opts.Metrics,
			Settle:     opts.Timing.SettleDelay,
			Attempts:   opts.Timing.ResolveAttempts,
			Backoff:    opts.Timing.BackoffInitial,
			Multiplier: opts.Timing.BackoffMultiplier,
		},
		poller: &Poller{
			API:      api,
			Clock:    clock,
			Log:      logging.Component(log, "poller"),
			Metrics:  opts.Metrics,
			Timeout:  opts.Timing.CITimeout,
			Interval: opts.Timing.PollInterval,
		},
	}
}

// WorkflowID returns the id of the configured workflow, fetching it on
// first use. A missing workflow fails with model.ErrWorkflowNotConfigured.
func (c *Client) WorkflowID(ctx context.Context) (int64, error) {
	if c.workflowID != nil {
		return *c.workflowID, nil
	}

	c.log.Info().Str("workflow", c.workflow).Msg("Fetching workflow id...")
	workflows, err := c.api.ListWorkflows(ctx)
	if err != nil {
		return 0, fmt.Errorf("list workflows: %w", err)
	}
	for _, wf := range workflows {
		if wf.Name == c.workflow {
			id := wf.ID
			c.workflowID = &id
			c.log.Info().Int64("workflow_id", id).Msg("Fetching workflow id: complete")
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no workflow named %q", model.ErrWorkflowNotConfigured, c.workflow)
}

// WaitForCommitBuild waits for the run triggered by commit to succeed.
func (c *Client) WaitForCommitBuild(ctx context.Context, commit string) error {
	id, err := c.WorkflowID(ctx)
	if err != nil {
		return err
	}

	run, err := c.resolver.Resolve(ctx, id, "commit", func(r *model.RemoteRun) bool {
		return r.HeadSHA == commit
	})
	if err != nil {
		return err
	}

	if !c.floorHeld {
		c.log.Info().Dur("min_build_time", c.minBuild).Msg("builds take a while, polling starts after a minimum wait")
		c.holder.Hold("Holding until build delay has elapsed", c.minBuild)
		c.floorHeld = true
	}

	return c.await(ctx, run, "commit")
}

// WaitForTagRelease waits for the run triggered by pushing tag to succeed.
func (c *Client) WaitForTagRelease(ctx context.Context, tag string) error {
	id, err := c.WorkflowID(ctx)
	if err != nil {
		return err
	}

	run, err := c.resolver.Resolve(ctx, id, "tag", func(r *model.RemoteRun) bool {
		return r.HeadBranch == tag
	})
	if err != nil {
		return err
	}

	return c.await(ctx, run, "tag")
}

// FetchLatestRelease returns the most recently published release.
func (c *Client) FetchLatestRelease(ctx context.Context) (*model.Release, error) {
	rel, err := c.api.LatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	return rel, nil
}

func (c *Client) await(ctx context.Context, run *model.RemoteRun, trigger string) error {
	outcome, err := c.poller.Await(ctx, run.ID, trigger)
	if err != nil {
		return err
	}
	return outcome.Err()
}
