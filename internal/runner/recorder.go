package runner

import (
	"context"
	"strings"
	"sync"
)

// Call is one invocation captured by a Recorder.
type Call struct {
	Name string
	Args []string
}

// String joins the argv with spaces ("git push origin master").
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is a scripted result for a Recorder.
type Response struct {
	Output string
	Err    error
}

// Recorder is a Runner that records calls instead of executing them.
// Responses are looked up by the full argv string; unscripted calls
// succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]Response
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{responses: map[string]Response{}}
}

// On scripts the response for the exact command line cmdline.
func (r *Recorder) On(cmdline string, output string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[cmdline] = Response{Output: output, Err: err}
	return r
}

// Run records the call and returns the scripted response, if any.
func (r *Recorder) Run(_ context.Context, name string, args ...string) (string, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	resp := r.responses[call.String()]
	return resp.Output, resp.Err
}

// Calls returns every recorded call as a command line, in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

// Called reports whether cmdline was invoked.
func (r *Recorder) Called(cmdline string) bool {
	for _, c := range r.Calls() {
		if c == cmdline {
			return true
		}
	}
	return false
}
