package state

import (
	"context"

	"github.com/1broseidon/winstated/internal/ax"
)

// Application is the registry's record of one tracked process.
type Application struct {
	pid  int
	name string
	ref  ax.Process

	// cancel aborts a pending deferred observer attachment when the
	// application is removed before its readiness delay elapses.
	cancel context.CancelFunc
	ready  chan struct{}
}

func newApplication(proc ax.Process) *Application {
	return &Application{
		pid:   proc.PID(),
		name:  proc.Name(),
		ref:   proc,
		ready: make(chan struct{}),
	}
}

// PID returns the process identifier.
func (a *Application) PID() int { return a.pid }

// Name returns the process display name.
func (a *Application) Name() string { return a.name }

// Ref returns the underlying process handle.
func (a *Application) Ref() ax.Process { return a.ref }

// Ready is closed once observer attachment and initial window discovery
// have completed (or been abandoned because the application was removed
// first).
func (a *Application) Ready() <-chan struct{} { return a.ready }
