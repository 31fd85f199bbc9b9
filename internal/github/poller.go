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

// Poller waits for a run to reach the completed status.
type Poller struct {
	API     API
	Clock   hold.Clock
	Log     zerolog.Logger
	Metrics *metrics.Metrics

	// Timeout bounds the whole wait, measured from the call.
	Timeout time.Duration

	// Interval is the sleep between status checks.
	Interval time.Duration
}

// Await polls runID until it completes and returns its outcome.
//
// The run is always fetched at least once. After each sleep the elapsed
// time since the call is checked against Timeout; once it is reached the
// wait fails with model.ErrTimeout. A completed run is never an error
// here: the caller decides what a non-success conclusion means.
func (p *Poller) Await(ctx context.Context, runID int64, trigger string) (model.PollOutcome, error) {
	start := p.Clock.Now()

	for {
		run, err := p.API.GetRun(ctx, runID)
		if err != nil {
			return model.PollOutcome{}, fmt.Errorf("get run %d: %w", runID, err)
		}
		p.Metrics.RunPoll(trigger)

		if run.IsCompleted() {
			p.Log.Info().
				Int64("run_id", runID).
				Str("conclusion", run.Conclusion).
				Msgf("%s run completed", trigger)
			return model.PollOutcome{RunID: runID, Conclusion: run.Conclusion}, nil
		}

		p.Log.Info().
			Int64("run_id", runID).
			Str("status", run.Status).
			Dur("sleep", p.Interval).
			Msg("workflow not completed")
		p.Clock.Sleep(p.Interval)

		if p.Clock.Now().Sub(start) >= p.Timeout {
			return model.PollOutcome{}, fmt.Errorf("%w: %s run %d still %q after %s",
				model.ErrTimeout, trigger, runID, run.Status, p.Timeout)
		}
	}
}
