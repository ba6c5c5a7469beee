package testsupport

import (
	"context"
	"strings"
	"sync"
)

// Call is one recorded external command invocation.
type Call struct {
	Name string
	Args []string
}

// Joined returns the arguments joined by single spaces.
func (c Call) Joined() string {
	return strings.Join(c.Args, " ")
}

// CommandRecorder stands in for an external command runner. Handler, when
// set, runs for every call and decides its outcome.
type CommandRecorder struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(name string, args []string) error
}

// Run matches the command runner signature used by the stage packages.
func (r *CommandRecorder) Run(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	handler := r.Handler
	r.mu.Unlock()
	if handler != nil {
		return handler(name, args)
	}
	return nil
}

// Calls returns a copy of the recorded invocations.
func (r *CommandRecorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// LastArg returns the final argument of a call, which is the output path for
// ffmpeg style invocations.
func LastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}
