package runner

import (
	"context"
	"sync"
)

// Recorder is a Runner that records commands instead of running them.
// Outputs maps a command name to the bytes Output returns; Fail maps a
// command name to the error Run and Output return.
type Recorder struct {
	mu      sync.Mutex
	Calls   []Cmd
	Outputs map[string][]byte
	Fail    map[string]error
	// OnRun, when set, is called for every Run after recording.
	OnRun func(Cmd) error
}

func (r *Recorder) Run(_ context.Context, c Cmd) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, c)
	err := r.Fail[c.Name]
	hook := r.OnRun
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		return hook(c)
	}
	return nil
}

func (r *Recorder) Output(_ context.Context, c Cmd) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
	if err := r.Fail[c.Name]; err != nil {
		return nil, err
	}
	return r.Outputs[c.Name], nil
}

// Commands returns the recorded invocations rendered with Cmd.String.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
