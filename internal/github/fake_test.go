package github

import (
	"context"
	"errors"
	"sync"

	"github.com/shinji-kodama/release-runner/internal/model"
)

// fakeAPI is a scripted API. Each call to ListWorkflowRuns returns the
// next element of runPages (repeating the last one once exhausted), and
// each GetRun returns the next element of runStates for that id.
type fakeAPI struct {
	mu sync.Mutex

	workflows    []model.Workflow
	workflowErr  error
	runPages     [][]model.RemoteRun
	runStates    map[int64][]model.RemoteRun
	release      *model.Release
	listCalls    int
	getCalls     int
	workflowHits int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		workflows: []model.Workflow{{ID: 7, Name: "CI"}, {ID: 9, Name: "Publish"}},
		runStates: map[int64][]model.RemoteRun{},
	}
}

func (f *fakeAPI) ListWorkflows(context.Context) ([]model.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflowHits++
	if f.workflowErr != nil {
		return nil, f.workflowErr
	}
	return f.workflows, nil
}

func (f *fakeAPI) ListWorkflowRuns(_ context.Context, workflowID int64) ([]model.RemoteRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.runPages) == 0 {
		return nil, nil
	}
	i := f.listCalls - 1
	if i >= len(f.runPages) {
		i = len(f.runPages) - 1
	}
	return f.runPages[i], nil
}

func (f *fakeAPI) GetRun(_ context.Context, runID int64) (*model.RemoteRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	states := f.runStates[runID]
	if len(states) == 0 {
		return nil, errors.New("unknown run")
	}
	run := states[0]
	if len(states) > 1 {
		f.runStates[runID] = states[1:]
	}
	return &run, nil
}

func (f *fakeAPI) LatestRelease(context.Context) (*model.Release, error) {
	if f.release == nil {
		return nil, errors.New("no release")
	}
	return f.release, nil
}

// running and done build run snapshots for runStates scripts.
func running(id int64) model.RemoteRun {
	return model.RemoteRun{ID: id, Status: model.RunStatusInProgress}
}

func done(id int64, conclusion string) model.RemoteRun {
	return model.RemoteRun{ID: id, Status: model.RunStatusCompleted, Conclusion: conclusion}
}
