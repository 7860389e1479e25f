// Package state maintains the authoritative registry of running
// applications and their windows. It reconciles asynchronous accessibility
// notifications and enumeration-based discovery into one consistent model
// and emits domain events for the window-management dispatcher.
//
// The accessibility service gives no way to resolve a numeric window id back
// to an element handle, so every observed window is cached here; the window
// registry is the only id-to-handle index in the system.
package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winstated/internal/ax"
)

// DefaultAdmitDelay is how long admission waits for a newly launched process
// to finish initializing its windowing subsystem before attaching observers.
// Attaching too early fails for slow starters; half a second covers most
// applications.
const DefaultAdmitDelay = 500 * time.Millisecond

// Options configures a State service.
type Options struct {
	// AdmitDelay overrides DefaultAdmitDelay. Zero keeps the default;
	// negative disables the wait entirely.
	AdmitDelay time.Duration
	Logger     *slog.Logger
}

// State owns the window and application registries.
//
// The window registry is locked: it is read and written both from discovery
// (any goroutine) and from notification callbacks. The application registry
// has its own lock because admission completes on deferred goroutines.
type State struct {
	svc        ax.Service
	sink       Dispatcher
	logger     *slog.Logger
	admitDelay time.Duration

	mu      sync.RWMutex
	windows map[uint32]*Window

	appMu sync.Mutex
	apps  map[int]*Application
}

// New creates the window-state service. sink receives every domain event;
// it must be non-blocking.
func New(svc ax.Service, sink Dispatcher, opts Options) *State {
	delay := opts.AdmitDelay
	switch {
	case delay == 0:
		delay = DefaultAdmitDelay
	case delay < 0:
		delay = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &State{
		svc:        svc,
		sink:       sink,
		logger:     logger,
		admitDelay: delay,
		windows:    make(map[uint32]*Window),
		apps:       make(map[int]*Application),
	}
}

// Window looks up a tracked window by id. Safe for concurrent use.
func (s *State) Window(id uint32) (*Window, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[id]
	return w, ok
}

// Windows returns a snapshot of all tracked windows.
func (s *State) Windows() []*Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Window, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w)
	}
	return out
}

// WindowCount returns the number of tracked windows.
func (s *State) WindowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// Register admits a window into the registry. It fails for the reserved
// id 0, when the window's destroy notification cannot be subscribed, or
// when the id is already registered (two discovery passes racing over the
// same window admit exactly one copy). On failure, ownership of the record
// stays with the caller, which must discard it.
//
// Every successful Register holds exactly one active destroy subscription
// until the matching Unregister.
func (s *State) Register(w *Window) bool {
	// A window with id 0 is never valid.
	if w.id == 0 {
		return false
	}

	// Claim the id before subscribing: when two discovery passes race over
	// the same window, the loser must back off without touching the
	// winner's destroy subscription.
	s.mu.Lock()
	if _, dup := s.windows[w.id]; dup {
		s.mu.Unlock()
		return false
	}
	s.windows[w.id] = w
	s.mu.Unlock()

	if err := s.svc.Subscribe(w.owner.ref, w.ref, ax.ElementDestroyed, w); err != nil {
		s.mu.Lock()
		delete(s.windows, w.id)
		s.mu.Unlock()
		return false
	}

	return true
}

// Unregister removes a window and releases its destroy subscription.
// Unregistering a window that is not present is a no-op.
func (s *State) Unregister(w *Window) {
	s.mu.Lock()
	delete(s.windows, w.id)
	s.mu.Unlock()

	s.svc.Unsubscribe(w.owner.ref, w.ref, ax.ElementDestroyed)
}

// Application looks up a tracked application by pid.
func (s *State) Application(pid int) (*Application, bool) {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	app, ok := s.apps[pid]
	return app, ok
}

// Applications returns a snapshot of all tracked applications.
func (s *State) Applications() []*Application {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	out := make([]*Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	return out
}

// ApplicationCount returns the number of tracked applications.
func (s *State) ApplicationCount() int {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	return len(s.apps)
}

func (s *State) emit(kind EventKind, w *Window) {
	if s.sink == nil {
		return
	}
	s.sink.Dispatch(Event{Kind: kind, Window: w})
}
