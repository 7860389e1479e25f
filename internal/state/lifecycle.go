package state

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/winstated/internal/ax"
)

// Admit starts tracking a newly launched process. Admitting a pid that is
// already tracked returns the existing record; duplicate launch detection is
// tolerated, not an error.
//
// Observer attachment is deferred: a process needs time to finish
// initializing its windowing subsystem, and attaching to one that has not is
// a hard failure on some platforms. The wait runs on its own goroutine,
// scoped to this application and cancelled automatically if the application
// is removed before it elapses. The returned record is valid immediately;
// Ready reports when attachment and initial discovery have finished.
func (s *State) Admit(proc ax.Process) *Application {
	s.appMu.Lock()
	if app, ok := s.apps[proc.PID()]; ok {
		s.appMu.Unlock()
		return app
	}
	app := newApplication(proc)
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	s.apps[app.pid] = app
	s.appMu.Unlock()

	go func() {
		defer close(app.ready)

		if s.admitDelay > 0 {
			t := time.NewTimer(s.admitDelay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		s.attach(app)
		// An application can have multiple windows when it spawns; track
		// all of them. Partial observer failure still leaves the
		// application passively tracked.
		s.Discover(app)
	}()

	return app
}

// Remove stops tracking an application and releases its resources. The
// application's remaining windows are purged synchronously rather than left
// for in-flight destroy notifications; the refresh loop catches stragglers
// either way.
func (s *State) Remove(app *Application) {
	s.appMu.Lock()
	delete(s.apps, app.pid)
	s.appMu.Unlock()

	if app.cancel != nil {
		app.cancel()
	}

	for _, w := range s.windowsOwnedBy(app) {
		s.Unregister(w)
	}
	s.svc.Detach(app.ref)
}

// Init performs one-time startup: every currently running qualifying
// process is admitted with immediate observer attachment (an already
// running process needs no readiness delay) and its windows discovered.
func (s *State) Init(policy ax.ProcessPolicy) error {
	procs, err := s.svc.RunningProcesses(policy)
	if err != nil {
		return fmt.Errorf("failed to enumerate running processes: %w", err)
	}

	for _, proc := range procs {
		s.appMu.Lock()
		if _, ok := s.apps[proc.PID()]; ok {
			s.appMu.Unlock()
			continue
		}
		app := newApplication(proc)
		s.apps[app.pid] = app
		s.appMu.Unlock()

		s.attach(app)
		s.Discover(app)
		close(app.ready)
	}

	s.logger.Info("state initialized",
		"applications", s.ApplicationCount(),
		"windows", s.WindowCount())
	return nil
}

// SyncProcesses reconciles the application registry against the processes
// currently running: new qualifying processes are admitted (with the usual
// deferred observer attachment) and tracked applications whose process has
// exited are removed.
func (s *State) SyncProcesses(policy ax.ProcessPolicy) error {
	procs, err := s.svc.RunningProcesses(policy)
	if err != nil {
		return fmt.Errorf("failed to enumerate running processes: %w", err)
	}

	running := make(map[int]ax.Process, len(procs))
	for _, proc := range procs {
		running[proc.PID()] = proc
	}

	for pid, proc := range running {
		if _, tracked := s.Application(pid); !tracked {
			s.logger.Info("application launched", "pid", pid, "app", proc.Name())
			s.Admit(proc)
		}
	}
	for _, app := range s.Applications() {
		if _, alive := running[app.pid]; !alive {
			s.logger.Info("application terminated", "pid", app.pid, "app", app.name)
			s.Remove(app)
		}
	}
	return nil
}

// attach registers the notification router as app's observer. Failure is
// loud but non-fatal: the application stays tracked without notifications.
func (s *State) attach(app *Application) {
	if err := s.svc.Attach(app.ref, s.Notify, app); err != nil {
		s.logger.Error("could not register window notifications",
			"pid", app.pid,
			"app", app.name,
			"error", err)
		return
	}
	s.logger.Info("registered window notifications",
		"pid", app.pid,
		"app", app.name)
}

func (s *State) windowsOwnedBy(app *Application) []*Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var owned []*Window
	for _, w := range s.windows {
		if w.owner == app {
			owned = append(owned, w)
		}
	}
	return owned
}
