package github

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/hold"
	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
)

// Resolver finds the run of a workflow that matches a predicate.
//
// A push or tag takes a moment to show up as a run, so an empty match is
// retried with exponential backoff. When more than one run matches, the
// highest run number wins: a re-triggered build supersedes earlier ones.
type Resolver struct {
	API     API
	Holder  *hold.Holder
	Clock   hold.Clock
	Log     zerolog.Logger
	Metrics *metrics.Metrics

	// Settle is held once before the first fetch.
	Settle time.Duration

	// Attempts is the total number of listing fetches.
	Attempts int

	// Backoff is the first sleep after an empty listing; it is multiplied
	// by Multiplier after every further empty listing.
	Backoff    time.Duration
	Multiplier float64
}

// Resolve returns the authoritative run of workflowID for which match
// returns true. trigger names the kind of lookup ("commit", "tag") in logs
// and metrics.
//
// It fails with model.ErrRunNotFound once Attempts fetches came back
// without a match. API errors are returned immediately.
func (r *Resolver) Resolve(ctx context.Context, workflowID int64, trigger string, match func(*model.RemoteRun) bool) (*model.RemoteRun, error) {
	r.Holder.Hold("Delaying run lookup to avoid conflicts", r.Settle)

	backoff := r.Backoff
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		runs, err := r.API.ListWorkflowRuns(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("list runs of workflow %d: %w", workflowID, err)
		}
		r.Metrics.ResolveAttempt(trigger)

		var matches []*model.RemoteRun
		for i := range runs {
			if match(&runs[i]) {
				matches = append(matches, &runs[i])
			}
		}

		if len(matches) > 0 {
			run := latest(matches)
			r.Log.Info().
				Int64("run_id", run.ID).
				Int("run_number", run.RunNumber).
				Int("matches", len(matches)).
				Msgf("resolved %s run", trigger)
			return run, nil
		}

		// No point sleeping after the last fetch.
		if attempt == r.Attempts {
			break
		}
		r.Log.Info().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msgf("no %s run found yet, retrying", trigger)
		r.Clock.Sleep(backoff)
		backoff = time.Duration(float64(backoff) * r.Multiplier)
	}

	return nil, fmt.Errorf("%w: no %s run of workflow %d after %d attempts",
		model.ErrRunNotFound, trigger, workflowID, r.Attempts)
}

// latest returns the run with the greatest run number.
func latest(runs []*model.RemoteRun) *model.RemoteRun {
	best := runs[0]
	for _, run := range runs[1:] {
		if run.RunNumber > best.RunNumber {
			best = run
		}
	}
	return best
}
